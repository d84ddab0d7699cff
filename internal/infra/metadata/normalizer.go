package metadata

import (
	"context"
	"strconv"
	"strings"

	"github.com/kashguard/go-tee-verifier/internal/infra/session"
	"github.com/rs/zerolog/log"
)

// candidate resolves one possible location of an object inside a payload or its envelope.
type candidate func(payload, envelope map[string]interface{}) map[string]interface{}

var (
	// verificationProbes are tried in order, the first object found wins.
	verificationProbes = []candidate{
		func(p, _ map[string]interface{}) map[string]interface{} { return objectAt(p, "verification") },
		func(p, _ map[string]interface{}) map[string]interface{} { return objectAt(p, "metadata", "verification") },
		func(p, _ map[string]interface{}) map[string]interface{} { return objectAt(p, "near_metadata", "verification") },
		func(_, e map[string]interface{}) map[string]interface{} { return objectAt(e, "verification") },
	}

	attestationProbes = []candidate{
		func(p, _ map[string]interface{}) map[string]interface{} { return objectAt(p, "attestation") },
		func(p, _ map[string]interface{}) map[string]interface{} { return objectAt(p, "metadata", "attestation") },
		func(p, _ map[string]interface{}) map[string]interface{} { return objectAt(p, "near_metadata", "attestation") },
		func(_, e map[string]interface{}) map[string]interface{} { return objectAt(e, "attestation") },
	}
)

// Extractor turns raw provider responses into Metadata.
type Extractor struct {
	// Source is used when the verification object does not name one.
	Source string
}

// Extract probes payload and envelope with the default source.
func Extract(payload, envelope map[string]interface{}) (*Metadata, bool) {
	return Extractor{Source: DefaultSource}.Extract(payload, envelope)
}

// Extract returns false when the payload carries no verification signal at all,
// so callers can tell "no verification attempted" from "nothing verified yet".
func (x Extractor) Extract(payload, envelope map[string]interface{}) (*Metadata, bool) {
	verification := firstCandidate(verificationProbes, payload, envelope)
	attestation := firstCandidate(attestationProbes, payload, envelope)

	proof := firstValue(valueAt(verification, "proof"), valueAt(attestation, "proof"), valueAt(payload, "proof"))
	signature := firstString(signatureString(valueAt(verification, "signature")), signatureString(valueAt(attestation, "signature")))
	measurement := firstString(stringAt(verification, "measurement"), stringAt(attestation, "measurement"))

	var report interface{}
	if r := firstValue(valueAt(verification, "attestation_report"), valueAt(verification, "attestationReport")); r != nil {
		report = r
	} else if attestation != nil {
		report = attestation
	}

	if verification == nil && proof == nil && len(signature) == 0 && report == nil && len(measurement) == 0 {
		return nil, false
	}

	source := x.Source
	if len(source) == 0 {
		source = DefaultSource
	}

	m := &Metadata{
		Source:            firstString(stringAt(verification, "source"), source),
		Status:            CoerceStatus(stringAt(verification, "status")),
		MessageID:         firstString(stringAt(verification, "message_id"), stringAt(verification, "messageId"), stringAt(payload, "id")),
		Nonce:             firstString(stringAt(verification, "nonce"), stringAt(attestation, "nonce")),
		AttestationReport: report,
		AttestationURL: firstString(
			stringAt(verification, "attestation_url"),
			stringAt(verification, "attestationUrl"),
			stringAt(attestation, "url"),
		),
		Proof:       proof,
		Signature:   signature,
		Measurement: measurement,
		IssuedAt:    firstString(stringAt(verification, "issued_at"), stringAt(verification, "issuedAt")),
		Error:       firstString(stringAt(verification, "error"), stringAt(attestation, "error")),
	}

	return m, true
}

// Normalize ensures a message id is present, falling back to fallbackID. It has no side effects.
func Normalize(m Metadata, fallbackID string) Metadata {
	if len(m.MessageID) == 0 {
		m.MessageID = fallbackID
	}
	if len(m.Source) == 0 {
		m.Source = DefaultSource
	}
	if len(m.Status) == 0 {
		m.Status = StatusPending
	}
	return m
}

// EnsureSession registers a session for the metadata's message id, attaching the session nonce
// when the metadata has none. Registration is idempotent, an existing session is reused.
// Only call this in a trusted server context.
func EnsureSession(ctx context.Context, store session.Store, m Metadata) Metadata {
	if store == nil || len(m.MessageID) == 0 {
		return m
	}

	sess, err := store.Register(ctx, session.RegisterParams{ID: m.MessageID, Nonce: m.Nonce})
	if err != nil {
		log.Warn().Err(err).Str("verification_id", m.MessageID).Msg("Failed to register verification session for metadata")
		return m
	}

	if len(m.Nonce) == 0 {
		m.Nonce = sess.Nonce
	}
	return m
}

// Merge returns a new value where the non-empty fields of update override base.
// A pending update never downgrades a settled status.
func Merge(base, update Metadata) Metadata {
	res := base

	if len(update.Source) > 0 {
		res.Source = update.Source
	}
	if len(update.Status) > 0 && (update.Status != StatusPending || len(res.Status) == 0) {
		res.Status = update.Status
	}
	if len(update.MessageID) > 0 {
		res.MessageID = update.MessageID
	}
	if len(update.Nonce) > 0 {
		res.Nonce = update.Nonce
	}
	if update.AttestationReport != nil {
		res.AttestationReport = update.AttestationReport
	}
	if len(update.AttestationURL) > 0 {
		res.AttestationURL = update.AttestationURL
	}
	if update.Proof != nil {
		res.Proof = update.Proof
	}
	if len(update.Signature) > 0 {
		res.Signature = update.Signature
	}
	if len(update.Measurement) > 0 {
		res.Measurement = update.Measurement
	}
	if len(update.IssuedAt) > 0 {
		res.IssuedAt = update.IssuedAt
	}
	if len(update.Error) > 0 {
		res.Error = update.Error
	}

	return res
}

func firstCandidate(probes []candidate, payload, envelope map[string]interface{}) map[string]interface{} {
	for _, probe := range probes {
		if obj := probe(payload, envelope); obj != nil {
			return obj
		}
	}
	return nil
}

func valueAt(m map[string]interface{}, path ...string) interface{} {
	var cur interface{} = m
	for _, key := range path {
		obj, ok := cur.(map[string]interface{})
		if !ok || obj == nil {
			return nil
		}
		cur = obj[key]
	}
	return cur
}

func objectAt(m map[string]interface{}, path ...string) map[string]interface{} {
	obj, ok := valueAt(m, path...).(map[string]interface{})
	if !ok {
		return nil
	}
	return obj
}

func stringAt(m map[string]interface{}, path ...string) string {
	return scalarString(valueAt(m, path...))
}

func scalarString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// signatureString accepts a bare signature or an object carrying one under "signature".
func signatureString(v interface{}) string {
	if obj, ok := v.(map[string]interface{}); ok {
		return stringAt(obj, "signature")
	}
	return scalarString(v)
}

func firstString(values ...string) string {
	for _, v := range values {
		if len(v) > 0 {
			return v
		}
	}
	return ""
}

func firstValue(values ...interface{}) interface{} {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
