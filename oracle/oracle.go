package oracle

import (
	"github.com/tendermint/tendermint/crypto/tmhash"
	tmbytes "github.com/tendermint/tendermint/libs/bytes"
)

// ValidityOracle returns a validity verdict for a content fingerprint.
// Implementations must be pure and deterministic: the same fingerprint
// always yields the same verdict, with no side effects.
type ValidityOracle interface {
	Validate(fingerprint tmbytes.HexBytes) bool
	ValidateBatch(fingerprints []tmbytes.HexBytes) []bool
}

//----------------------------------------
// HashRuleOracle

// HashRuleOracle is the reference oracle: a fingerprint is valid iff it is
// exactly tmhash-sized and not all zero.
type HashRuleOracle struct{}

func NewHashRuleOracle() HashRuleOracle {
	return HashRuleOracle{}
}

func (o HashRuleOracle) Validate(fingerprint tmbytes.HexBytes) bool {
	if len(fingerprint) != tmhash.Size {
		return false
	}
	for _, b := range fingerprint {
		if b != 0 {
			return true
		}
	}
	return false
}

func (o HashRuleOracle) ValidateBatch(fingerprints []tmbytes.HexBytes) []bool {
	verdicts := make([]bool, len(fingerprints))
	for i, fp := range fingerprints {
		verdicts[i] = o.Validate(fp)
	}
	return verdicts
}

//----------------------------------------
// FixedOracle

// FixedOracle always answers Verdict. EXPOSED FOR TESTING.
type FixedOracle struct {
	Verdict bool
}

func (o FixedOracle) Validate(tmbytes.HexBytes) bool {
	return o.Verdict
}

func (o FixedOracle) ValidateBatch(fingerprints []tmbytes.HexBytes) []bool {
	verdicts := make([]bool, len(fingerprints))
	for i := range verdicts {
		verdicts[i] = o.Verdict
	}
	return verdicts
}
