package hdkey

import (
	"fmt"

	"dashcore.dev/core/network"
)

// BIP44 and DIP9 path constants.
const (
	BIP44Purpose        uint32 = 44
	FeaturePurpose      uint32 = 9
	DashCoinType        uint32 = 5
	DashTestnetCoinType uint32 = 1

	FeaturePurposeIdentities uint32 = 5
	FeaturePurposeDashpay    uint32 = 15

	IdentitiesSubfeatureAuthentication uint32 = 0
	IdentitiesSubfeatureRegistration   uint32 = 1
	IdentitiesSubfeatureTopup          uint32 = 2
	IdentitiesSubfeatureInvitations    uint32 = 3
)

// PathReference tags what a well-known path is used for.
type PathReference uint8

const (
	RefUnknown                     PathReference = 0
	RefBIP32                       PathReference = 1
	RefBIP44                       PathReference = 2
	RefBlockchainIdentities        PathReference = 3
	RefProviderFunds               PathReference = 4
	RefProviderVotingKeys          PathReference = 5
	RefProviderOperatorKeys        PathReference = 6
	RefProviderOwnerKeys           PathReference = 7
	RefContactBasedFunds           PathReference = 8
	RefContactBasedFundsRoot       PathReference = 9
	RefContactBasedFundsExternal   PathReference = 10
	RefIdentityRegistrationFunding PathReference = 11
	RefIdentityTopupFunding        PathReference = 12
	RefIdentityInvitationFunding   PathReference = 13
	RefProviderPlatformNodeKeys    PathReference = 14
	RefRoot                        PathReference = 255
)

var referenceNames = map[PathReference]string{
	RefUnknown:                     "unknown",
	RefBIP32:                       "bip32",
	RefBIP44:                       "bip44",
	RefBlockchainIdentities:        "blockchain_identities",
	RefProviderFunds:               "provider_funds",
	RefProviderVotingKeys:          "provider_voting_keys",
	RefProviderOperatorKeys:        "provider_operator_keys",
	RefProviderOwnerKeys:           "provider_owner_keys",
	RefContactBasedFunds:           "contact_based_funds",
	RefContactBasedFundsRoot:       "contact_based_funds_root",
	RefContactBasedFundsExternal:   "contact_based_funds_external",
	RefIdentityRegistrationFunding: "identity_registration_funding",
	RefIdentityTopupFunding:        "identity_topup_funding",
	RefIdentityInvitationFunding:   "identity_invitation_funding",
	RefProviderPlatformNodeKeys:    "provider_platform_node_keys",
	RefRoot:                        "root",
}

func (r PathReference) String() string {
	if name, ok := referenceNames[r]; ok {
		return name
	}
	return fmt.Sprintf("PathReference(%d)", uint8(r))
}

// PathType is a set of flags describing the keys below a path.
type PathType uint32

const (
	PathClearFunds PathType = 1 << iota
	PathAnonymousFunds
	PathViewOnlyFunds
	PathSingleUserAuthentication
	PathMultipleUserAuthentication
	PathPartial
	PathProtectedFunds
	PathCreditFunding

	PathUnknown PathType = 0
)

func (t PathType) IsForAuthentication() bool {
	return t&(PathSingleUserAuthentication|PathMultipleUserAuthentication) != 0
}

func (t PathType) IsForFunds() bool {
	return t&(PathClearFunds|PathAnonymousFunds|PathViewOnlyFunds|PathProtectedFunds) != 0
}

// IndexPath is a fixed path prefix with its purpose.
type IndexPath struct {
	Indexes   DerivationPath
	Reference PathReference
	Type      PathType
}

// Append returns the prefix extended by more.
func (p IndexPath) Append(more ...uint32) DerivationPath {
	return p.Indexes.Extend(more)
}

// DeriveFromSeed derives the key at the prefix plus more from a seed's
// master key.
func (p IndexPath) DeriveFromSeed(seed []byte, more DerivationPath, params *network.Params) (*ExtendedPrivKey, error) {
	master, err := NewMaster(seed, params)
	if err != nil {
		return nil, err
	}
	return master.Derive(p.Indexes.Extend(more))
}

// DerivePublic derives below a public master key. This only succeeds for
// prefixes without hardened elements.
func (p IndexPath) DerivePublic(master *ExtendedPubKey, more DerivationPath) (*ExtendedPubKey, error) {
	return master.Derive(p.Indexes.Extend(more))
}

func coinType(params *network.Params) uint32 {
	if params.IsTestnet() {
		return DashTestnetCoinType
	}
	return DashCoinType
}

// BIP44Path is m/44'/coin' for the network.
func BIP44Path(params *network.Params) IndexPath {
	return IndexPath{
		Indexes:   DerivationPath{Hardened(BIP44Purpose), Hardened(coinType(params))},
		Reference: RefBIP44,
		Type:      PathClearFunds,
	}
}

func identityPath(params *network.Params, sub uint32, ref PathReference, typ PathType) IndexPath {
	return IndexPath{
		Indexes: DerivationPath{
			Hardened(FeaturePurpose),
			Hardened(coinType(params)),
			Hardened(FeaturePurposeIdentities),
			Hardened(sub),
		},
		Reference: ref,
		Type:      typ,
	}
}

// IdentityRegistrationPath is m/9'/coin'/5'/1'.
func IdentityRegistrationPath(params *network.Params) IndexPath {
	return identityPath(params, IdentitiesSubfeatureRegistration, RefIdentityRegistrationFunding, PathCreditFunding)
}

// IdentityTopupPath is m/9'/coin'/5'/2'.
func IdentityTopupPath(params *network.Params) IndexPath {
	return identityPath(params, IdentitiesSubfeatureTopup, RefIdentityTopupFunding, PathCreditFunding)
}

// IdentityInvitationPath is m/9'/coin'/5'/3'.
func IdentityInvitationPath(params *network.Params) IndexPath {
	return identityPath(params, IdentitiesSubfeatureInvitations, RefIdentityInvitationFunding, PathCreditFunding)
}

// IdentityAuthenticationPath is m/9'/coin'/5'/0'.
func IdentityAuthenticationPath(params *network.Params) IndexPath {
	return identityPath(params, IdentitiesSubfeatureAuthentication, RefBlockchainIdentities, PathSingleUserAuthentication)
}
