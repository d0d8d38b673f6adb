package consensus

import "dashcore.dev/core/hashes"

// MerkleRoot folds leaves pairwise with double SHA-256 until one node is
// left. A level with an odd number of nodes pairs its last node with
// itself. A single leaf is its own root, which is why a block holding only
// its coinbase, such as the genesis block, commits to the coinbase txid.
func MerkleRoot(leaves []hashes.Hash256) (hashes.Hash256, error) {
	if len(leaves) == 0 {
		return hashes.Hash256{}, txerr(ERR_MERKLE_EMPTY, "merkle: no leaves")
	}
	level := append([]hashes.Hash256(nil), leaves...)
	var pair [64]byte
	for len(level) > 1 {
		next := level[:0]
		for i := 0; i < len(level); i += 2 {
			right := i + 1
			if right == len(level) {
				right = i
			}
			copy(pair[:32], level[i][:])
			copy(pair[32:], level[right][:])
			next = append(next, hashes.DoubleSHA256(pair[:]))
		}
		level = next
	}
	return level[0], nil
}

// TxMerkleRoot computes the merkle root over the transaction ids.
func TxMerkleRoot(txs []*Transaction) (hashes.MerkleNode, error) {
	leaves := make([]hashes.Hash256, len(txs))
	for i, tx := range txs {
		leaves[i] = hashes.Hash256(tx.Txid())
	}
	root, err := MerkleRoot(leaves)
	return hashes.MerkleNode(root), err
}

// WitnessMerkleRoot computes the merkle root over the witness ids, with the
// coinbase (first) transaction's entry replaced by zero.
func WitnessMerkleRoot(txs []*Transaction) (hashes.MerkleNode, error) {
	leaves := make([]hashes.Hash256, len(txs))
	for i, tx := range txs {
		if i == 0 {
			continue
		}
		leaves[i] = hashes.Hash256(tx.Wtxid())
	}
	root, err := MerkleRoot(leaves)
	return hashes.MerkleNode(root), err
}

// WitnessCommitment is DoubleSHA256(witnessRoot || reserved), the value a
// coinbase output commits to.
func WitnessCommitment(witnessRoot hashes.MerkleNode, reserved [32]byte) hashes.Hash256 {
	return hashes.DoubleSHA256Parts(witnessRoot[:], reserved[:])
}
