package verdict

import (
	"strings"
)

const (
	ReasonInvalidSignature  = "Invalid signature"
	ReasonNonceNotValidated = "Nonce not validated"
	ReasonNonceMismatch     = "Nonce mismatch"
	ReasonGPUFailed         = "GPU attestation failed"
	ReasonCPUFailed         = "CPU attestation failed"
	ReasonAttestationFailed = "Hardware attestation not trusted"
	ReasonAddressMismatch   = "Signer address mismatch"
	ReasonNoCandidates      = "No attested signing address"
)

// Unverified is the state used when no verification input exists at all.
func Unverified() State {
	pending := Step{Status: StepPending}
	return State{
		Overall: OverallUnverified,
		Steps: Steps{
			Hash:        pending,
			Signature:   pending,
			Address:     pending,
			Attestation: pending,
			Nonce:       pending,
			GPU:         pending,
			CPU:         pending,
		},
	}
}

// Evaluate returns Unverified for an empty input and Derive otherwise.
func Evaluate(in Input) State {
	if in.IsEmpty() {
		return Unverified()
	}
	return Derive(in)
}

// Derive computes the seven-step verdict. It is pure: no I/O, no shared state.
func Derive(in Input) State {
	var (
		state   State
		reasons []string
	)
	fail := func(reason string) {
		reasons = append(reasons, reason)
	}

	state.Steps.Hash = deriveHash(in, fail)

	state.Steps.Signature, state.RecoveredAddress = deriveSignature(in, fail)

	state.Steps.Nonce = deriveNonce(in, fail)

	state.Steps.GPU = deriveGPU(in, fail)

	cpuExcused := !in.CPURequired || !in.CPUConfigured
	state.Steps.CPU = deriveCPU(in, fail)

	state.Steps.Attestation = deriveAttestation(in, state.Steps, cpuExcused, fail)

	state.Steps.Address, state.AttestedAddress = deriveAddress(in, state.RecoveredAddress, fail)

	state.Overall = aggregate(state.Steps, cpuExcused)
	state.Reasons = dedupFold(reasons)

	return state
}

func deriveHash(in Input, fail func(string)) Step {
	reqHash := normalizeHash(in.RequestHash)
	respHash := normalizeHash(in.ResponseHash)
	text := normalizeHash(in.SignatureText)

	if len(reqHash) == 0 || len(respHash) == 0 || len(text) == 0 {
		return Step{Status: StepPending, Message: "Waiting for request/response hashes and signed text"}
	}

	expected := reqHash + ":" + respHash
	if text == expected || (strings.Contains(text, reqHash) && strings.Contains(text, respHash)) {
		return Step{
			Status:  StepSuccess,
			Message: "Signed text binds the request and response hashes",
		}
	}

	var missing []string
	if !strings.Contains(text, reqHash) {
		missing = append(missing, "request")
		fail("Request hash not found in signed text")
	}
	if !strings.Contains(text, respHash) {
		missing = append(missing, "response")
		fail("Response hash not found in signed text")
	}

	return Step{
		Status:  StepError,
		Message: "Signed text does not match the " + strings.Join(missing, " and ") + " hash",
		Details: map[string]interface{}{
			"expected":   expected,
			"signedText": text,
			"missing":    missing,
		},
	}
}

func deriveSignature(in Input, fail func(string)) (Step, string) {
	if len(strings.TrimSpace(in.Signature)) == 0 || len(in.SignatureText) == 0 {
		return Step{Status: StepPending, Message: "Waiting for signature"}, ""
	}

	addr, err := RecoverAddress(in.SignatureText, in.Signature)
	if err != nil {
		fail(ReasonInvalidSignature)
		return Step{
			Status:  StepError,
			Message: ReasonInvalidSignature,
			Details: map[string]interface{}{"error": err.Error()},
		}, ""
	}

	return Step{
		Status:  StepSuccess,
		Message: "Recovered signer address",
		Details: map[string]interface{}{"recoveredAddress": addr},
	}, addr
}

func deriveNonce(in Input, fail func(string)) Step {
	check := in.NonceCheck
	if check == nil {
		if in.hasVerificationSignal() {
			fail(ReasonNonceNotValidated)
			return Step{Status: StepError, Message: ReasonNonceNotValidated}
		}
		return Step{Status: StepPending, Message: "Verification not started"}
	}

	details := map[string]interface{}{
		"expected": check.Expected,
		"attested": check.Attested,
	}
	if len(check.NRAS) > 0 {
		details["nras"] = check.NRAS
	}

	if check.Valid {
		return Step{Status: StepSuccess, Message: "Nonce bound to attestation", Details: details}
	}

	fail(ReasonNonceMismatch)
	return Step{Status: StepError, Message: ReasonNonceMismatch, Details: details}
}

func deriveGPU(in Input, fail func(string)) Step {
	if in.NRASVerified == nil {
		return Step{Status: StepPending, Message: "GPU attestation not performed"}
	}
	if *in.NRASVerified {
		return Step{Status: StepSuccess, Message: "GPU attestation verified"}
	}

	fail(ReasonGPUFailed)
	for _, r := range in.Reasons {
		fail(r)
	}

	step := Step{Status: StepError, Message: ReasonGPUFailed}
	if len(in.Reasons) > 0 {
		step.Details = map[string]interface{}{"reasons": append([]string(nil), in.Reasons...)}
	}
	return step
}

func deriveCPU(in Input, fail func(string)) Step {
	if !in.CPURequired {
		return Step{Status: StepPending, Message: "CPU attestation not required"}
	}
	if !in.CPUConfigured {
		return Step{Status: StepPending, Message: "CPU attestation required but not configured"}
	}

	switch {
	case in.CPUVerified == nil:
		return Step{Status: StepPending, Message: "Waiting for CPU attestation"}
	case *in.CPUVerified:
		return Step{Status: StepSuccess, Message: "CPU attestation verified"}
	default:
		fail(ReasonCPUFailed)
		return Step{Status: StepError, Message: ReasonCPUFailed}
	}
}

// deriveAttestation is stricter than any single check: the raw verdict, GPU, CPU (when enforced)
// and nonce binding must all hold.
func deriveAttestation(in Input, steps Steps, cpuExcused bool, fail func(string)) Step {
	if in.AttestationResult == nil {
		return Step{Status: StepPending, Message: "Waiting for attestation result"}
	}

	if !affirmative(in.AttestationResult) {
		fail(ReasonAttestationFailed)
		return Step{
			Status:  StepError,
			Message: ReasonAttestationFailed,
			Details: map[string]interface{}{"result": in.AttestationResult},
		}
	}

	deps := map[string]StepStatus{
		"gpu":   steps.GPU.Status,
		"nonce": steps.Nonce.Status,
	}
	if !cpuExcused {
		deps["cpu"] = steps.CPU.Status
	}

	var failed, waiting []string
	for _, name := range []string{"gpu", "cpu", "nonce"} {
		status, ok := deps[name]
		if !ok {
			continue
		}
		switch status {
		case StepError:
			failed = append(failed, name)
		case StepPending:
			waiting = append(waiting, name)
		}
	}

	if len(failed) > 0 {
		fail(ReasonAttestationFailed)
		return Step{
			Status:  StepError,
			Message: ReasonAttestationFailed,
			Details: map[string]interface{}{"failed": failed},
		}
	}
	if len(waiting) > 0 {
		return Step{
			Status:  StepPending,
			Message: "Waiting for " + strings.Join(waiting, ", ") + " checks",
			Details: map[string]interface{}{"waiting": waiting},
		}
	}

	return Step{Status: StepSuccess, Message: "Hardware attestation trusted"}
}

func deriveAddress(in Input, recovered string, fail func(string)) (Step, string) {
	attested := strings.TrimSpace(in.AttestedAddress)

	if len(recovered) == 0 {
		return Step{Status: StepPending, Message: "Waiting for recovered signer address"}, attested
	}

	if len(attested) > 0 {
		if strings.EqualFold(recovered, attested) {
			return Step{Status: StepSuccess, Message: "Signer matches attested address"}, attested
		}

		fail(ReasonAddressMismatch)
		return Step{
			Status:  StepError,
			Message: ReasonAddressMismatch,
			Details: map[string]interface{}{
				"recoveredAddress": recovered,
				"attestedAddress":  attested,
			},
		}, attested
	}

	candidates := SigningAddressCandidates(in.Evidence)
	if len(candidates) == 0 {
		fail(ReasonNoCandidates)
		return Step{Status: StepError, Message: ReasonNoCandidates}, ""
	}

	for _, c := range candidates {
		if strings.EqualFold(recovered, c) {
			return Step{
				Status:  StepSuccess,
				Message: "Signer matches an attested node",
				Details: map[string]interface{}{"candidates": len(candidates)},
			}, c
		}
	}

	reported := candidates
	if len(reported) > maxReportedCandidates {
		reported = reported[:maxReportedCandidates]
	}

	fail(ReasonAddressMismatch)
	return Step{
		Status:  StepError,
		Message: ReasonAddressMismatch,
		Details: map[string]interface{}{
			"recoveredAddress": recovered,
			"candidates":       append([]string(nil), reported...),
			"candidateCount":   len(candidates),
		},
	}, ""
}

func aggregate(steps Steps, cpuExcused bool) Overall {
	all := []Step{steps.Hash, steps.Signature, steps.Address, steps.Attestation, steps.Nonce, steps.GPU, steps.CPU}
	for _, s := range all {
		if s.Status == StepError {
			return OverallFailed
		}
	}

	for _, s := range []Step{steps.Hash, steps.Signature, steps.Address, steps.Attestation, steps.Nonce, steps.GPU} {
		if s.Status != StepSuccess {
			return OverallPending
		}
	}

	if steps.CPU.Status == StepSuccess || (steps.CPU.Status == StepPending && cpuExcused) {
		return OverallVerified
	}

	return OverallPending
}

func affirmative(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case *bool:
		return t != nil && *t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "verified", "valid", "success", "pass", "passed":
			return true
		}
	}
	return false
}

func normalizeHash(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
