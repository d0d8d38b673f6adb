package hdkey

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DerivationPath is a sequence of child indexes below some extended key.
// Hardened elements have HardenedKeyStart added.
type DerivationPath []uint32

// Hardened returns the hardened form of index.
func Hardened(index uint32) uint32 { return index | HardenedKeyStart }

// ParsePath parses "m/44'/5'/0'/0/1". Hardened elements may be marked with
// ', h or H. "m" alone is the empty path.
func ParsePath(s string) (DerivationPath, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if parts[0] != "m" && parts[0] != "M" {
		return nil, fmt.Errorf("%w: %q must start with m", ErrInvalidPath, s)
	}
	path := make(DerivationPath, 0, len(parts)-1)
	for _, part := range parts[1:] {
		index, err := parsePathElement(part)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPath, s, err)
		}
		path = append(path, index)
	}
	return path, nil
}

func parsePathElement(part string) (uint32, error) {
	hardened := false
	if n := len(part); n > 0 {
		switch part[n-1] {
		case '\'', 'h', 'H':
			hardened = true
			part = part[:n-1]
		}
	}
	if part == "" {
		return 0, errors.New("empty element")
	}
	v, err := strconv.ParseUint(part, 10, 31)
	if err != nil {
		return 0, fmt.Errorf("element %q", part)
	}
	index := uint32(v) // #nosec G115 -- ParseUint bounded to 31 bits.
	if hardened {
		index = Hardened(index)
	}
	return index, nil
}

// String formats the path with ' marking hardened elements.
func (p DerivationPath) String() string {
	var b strings.Builder
	b.WriteString("m")
	for _, index := range p {
		b.WriteByte('/')
		if index >= HardenedKeyStart {
			b.WriteString(strconv.FormatUint(uint64(index-HardenedKeyStart), 10))
			b.WriteByte('\'')
			continue
		}
		b.WriteString(strconv.FormatUint(uint64(index), 10))
	}
	return b.String()
}

// Child returns a new path extended by index.
func (p DerivationPath) Child(index uint32) DerivationPath {
	return p.Extend(DerivationPath{index})
}

// Extend returns a new path with more appended.
func (p DerivationPath) Extend(more DerivationPath) DerivationPath {
	out := make(DerivationPath, 0, len(p)+len(more))
	out = append(out, p...)
	return append(out, more...)
}
