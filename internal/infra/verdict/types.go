package verdict

import (
	"github.com/kashguard/go-tee-verifier/internal/infra/proof"
)

// StepStatus 单步验证状态
type StepStatus string

const (
	StepPending StepStatus = "pending"
	StepSuccess StepStatus = "success"
	StepError   StepStatus = "error"
)

// Overall 聚合验证结论
type Overall string

const (
	OverallUnverified Overall = "unverified"
	OverallPending    Overall = "pending"
	OverallVerified   Overall = "verified"
	OverallFailed     Overall = "failed"
)

// Step is the outcome of one verification step.
type Step struct {
	Status  StepStatus             `json:"status"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Steps holds the seven verification steps.
type Steps struct {
	Hash        Step `json:"hash"`
	Signature   Step `json:"signature"`
	Address     Step `json:"address"`
	Attestation Step `json:"attestation"`
	Nonce       Step `json:"nonce"`
	GPU         Step `json:"gpu"`
	CPU         Step `json:"cpu"`
}

// State is the verdict. It is recomputed from the inputs on every call.
type State struct {
	Overall          Overall  `json:"overall"`
	Steps            Steps    `json:"steps"`
	RecoveredAddress string   `json:"recoveredAddress,omitempty"`
	AttestedAddress  string   `json:"attestedAddress,omitempty"`
	Reasons          []string `json:"reasons,omitempty"`
}

// Input is everything the state machine judges. Nil pointers mean "not supplied".
type Input struct {
	RequestHash   string
	ResponseHash  string
	SignatureText string
	Signature     string

	// AttestationResult is the raw hardware verdict, a bool or a string such as "verified".
	AttestationResult interface{}
	NonceCheck        *proof.NonceCheck
	NRASVerified      *bool
	CPUVerified       *bool
	CPURequired       bool
	CPUConfigured     bool

	// AttestedAddress switches the address step to direct enforcement when set.
	AttestedAddress string
	// Evidence is the decoded attestation report searched for signer address candidates.
	Evidence map[string]interface{}
	// Reasons are failure reasons reported by the remote verifier.
	Reasons []string
}

// hasVerificationSignal reports whether anything beyond the recorded hashes was supplied.
func (in Input) hasVerificationSignal() bool {
	return len(in.SignatureText) > 0 ||
		len(in.Signature) > 0 ||
		in.AttestationResult != nil ||
		in.NonceCheck != nil ||
		in.NRASVerified != nil ||
		in.CPUVerified != nil ||
		len(in.AttestedAddress) > 0 ||
		len(in.Evidence) > 0 ||
		len(in.Reasons) > 0
}

// IsEmpty reports whether no verification input was supplied at all.
func (in Input) IsEmpty() bool {
	return len(in.RequestHash) == 0 && len(in.ResponseHash) == 0 && !in.hasVerificationSignal()
}
