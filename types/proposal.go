package types

import (
	"errors"
	"fmt"

	"github.com/tendermint/tendermint/crypto/tmhash"
	tmbytes "github.com/tendermint/tendermint/libs/bytes"
)

// ProposalState is the lifecycle state of a proposal.
type ProposalState uint8

const (
	StateProposed           = ProposalState(0)
	StateOptimisticApproved = ProposalState(1)
	StateChallenged         = ProposalState(2)
	StateFinalized          = ProposalState(3)
	StateRejected           = ProposalState(4)
)

func (s ProposalState) String() string {
	switch s {
	case StateProposed:
		return "Proposed"
	case StateOptimisticApproved:
		return "OptimisticApproved"
	case StateChallenged:
		return "Challenged"
	case StateFinalized:
		return "Finalized"
	case StateRejected:
		return "Rejected"
	default:
		return "UnknownState"
	}
}

// Proposal is one entry in the optimistic-approval pipeline.
//
// ChallengeWindowEnd is set exactly once, on entering OptimisticApproved,
// and is immutable thereafter.
type Proposal struct {
	ID       uint64  `json:"id"`
	Proposer Address `json:"proposer"`

	// ContentHash is the fixed-width fingerprint of the proposed content.
	ContentHash tmbytes.HexBytes `json:"content_hash"`
	Metadata    string           `json:"metadata"`

	State ProposalState `json:"state"`

	CreationHeight     int64 `json:"creation_height"`
	ChallengeWindowEnd int64 `json:"challenge_window_end"`

	// Approvals records which validators signed off pre-approval; the count
	// can gate optimistic approval in N-of-M deployments.
	Approvals map[string]bool `json:"approvals"`

	// OracleValidated is the validity oracle's verdict on ContentHash,
	// captured at creation.
	OracleValidated bool `json:"oracle_validated"`

	// Challenger is the validator that moved the proposal to Challenged,
	// empty otherwise.
	Challenger Address `json:"challenger,omitempty"`
}

// NewProposal returns a proposal in the Proposed state.
func NewProposal(id uint64, proposer Address, contentHash tmbytes.HexBytes, metadata string, height int64) *Proposal {
	return &Proposal{
		ID:             id,
		Proposer:       proposer,
		ContentHash:    contentHash,
		Metadata:       metadata,
		State:          StateProposed,
		CreationHeight: height,
		Approvals:      make(map[string]bool),
	}
}

// ValidateBasic checks the fields every proposal must carry regardless of
// state.
func (p *Proposal) ValidateBasic() error {
	if p == nil {
		return errors.New("nil proposal")
	}
	if len(p.ContentHash) != tmhash.Size {
		return fmt.Errorf("content hash is the wrong size: %d", len(p.ContentHash))
	}
	if p.ContentHash.String() == "" {
		return errors.New("proposal has no content hash")
	}
	if p.Proposer.IsZero() {
		return errors.New("proposal has no proposer")
	}
	return nil
}

// ApprovalCount returns the number of recorded validator approvals.
func (p *Proposal) ApprovalCount() int {
	return len(p.Approvals)
}

// HasApprovalFrom reports whether the validator already approved.
func (p *Proposal) HasApprovalFrom(addr Address) bool {
	return p.Approvals[addr.Key()]
}

// Copy returns a deep copy of the proposal.
func (p *Proposal) Copy() *Proposal {
	pCopy := *p
	pCopy.ContentHash = make(tmbytes.HexBytes, len(p.ContentHash))
	copy(pCopy.ContentHash, p.ContentHash)
	pCopy.Approvals = make(map[string]bool, len(p.Approvals))
	for k, v := range p.Approvals {
		pCopy.Approvals[k] = v
	}
	return &pCopy
}

func (p *Proposal) String() string {
	if p == nil {
		return "nil-Proposal"
	}
	return fmt.Sprintf("Proposal{#%d %v %v window_end:%d}",
		p.ID, p.State, p.ContentHash, p.ChallengeWindowEnd)
}
