package verdict

import (
	"encoding/json"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kashguard/go-tee-verifier/internal/infra/proof"
	"github.com/kashguard/go-tee-verifier/internal/infra/session"
	"github.com/rs/zerolog/log"
)

// NRASOverallResultClaim carries the overall GPU attestation result in an NRAS token.
const NRASOverallResultClaim = "x-nvidia-overall-att-result"

// Options carries deployment policy that is not part of the proof itself.
type Options struct {
	CPURequired     bool
	CPUConfigured   bool
	AttestedAddress string
}

// InputFromProof assembles a state machine input from a proof bundle and its session.
// Either argument may be nil.
func InputFromProof(resp *proof.Response, sess *session.Session, opts Options) Input {
	in := Input{
		CPURequired:     opts.CPURequired,
		CPUConfigured:   opts.CPUConfigured,
		AttestedAddress: opts.AttestedAddress,
	}

	if sess != nil {
		in.RequestHash = sess.RequestHash
		in.ResponseHash = sess.ResponseHash
	}

	if resp == nil {
		return in
	}

	if resp.Signature != nil {
		in.SignatureText = resp.Signature.Text
		in.Signature = resp.Signature.Signature
	}

	in.NonceCheck = resp.NonceCheck

	attestation := decodeObject(resp.Attestation)
	if len(attestation) > 0 {
		in.Evidence = attestation
	}

	if res := resp.Results; res != nil {
		in.Reasons = append(in.Reasons, res.Reasons...)
		if res.Verified != nil {
			in.AttestationResult = *res.Verified
		}
		if res.GPU != nil {
			in.NRASVerified = res.GPU.Verified
			in.Reasons = append(in.Reasons, res.GPU.Reasons...)
		}
		if res.CPU != nil {
			in.CPUVerified = res.CPU.Verified
		}
	}

	if in.AttestationResult == nil && attestation != nil {
		if v, ok := attestation["verified"]; ok && v != nil {
			in.AttestationResult = v
		} else if v, ok := attestation["status"].(string); ok {
			in.AttestationResult = v
		}
	}

	if in.NRASVerified == nil {
		in.NRASVerified = NRASVerdict(resp.NRAS)
	}

	if in.CPUVerified == nil {
		if intel := decodeObject(resp.Intel); intel != nil {
			if v, ok := intel["verified"].(bool); ok {
				in.CPUVerified = &v
			}
		}
	}

	if len(in.Reasons) > 0 {
		in.Reasons = dedupFold(in.Reasons)
	}

	return in
}

// NRASVerdict reads the GPU verdict from an NRAS result. It accepts an object with a
// "verified" flag, an object holding the token, a bare token string or the NRAS list
// form [["JWT", token], {...}]. The token signature is not checked here, the backend
// already validated it.
func NRASVerdict(raw json.RawMessage) *bool {
	if len(raw) == 0 {
		return nil
	}

	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}

	if obj, ok := v.(map[string]interface{}); ok {
		if verified, ok := obj["verified"].(bool); ok {
			return &verified
		}
	}

	token := findToken(v)
	if len(token) == 0 {
		return nil
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		log.Debug().Err(err).Msg("Failed to parse NRAS token")
		return nil
	}

	result, ok := claims[NRASOverallResultClaim].(bool)
	if !ok {
		return nil
	}
	return &result
}

func findToken(v interface{}) string {
	switch t := v.(type) {
	case string:
		if strings.Count(t, ".") == 2 {
			return t
		}
	case map[string]interface{}:
		for _, key := range []string{"token", "jwt", "eat", "eat_token"} {
			if s := findToken(t[key]); len(s) > 0 {
				return s
			}
		}
	case []interface{}:
		if len(t) == 2 {
			if tag, ok := t[0].(string); ok && strings.EqualFold(tag, "JWT") {
				return findToken(t[1])
			}
		}
		for _, item := range t {
			if s := findToken(item); len(s) > 0 {
				return s
			}
		}
	}
	return ""
}

func decodeObject(raw json.RawMessage) map[string]interface{} {
	if len(raw) == 0 {
		return nil
	}

	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}
	return obj
}
