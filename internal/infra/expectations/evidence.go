package expectations

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// payloadExtractor locates one candidate GPU evidence payload inside a raw report.
type payloadExtractor struct {
	name    string
	extract func(report map[string]interface{}) interface{}
}

// payloadExtractors are tried in priority order; the first payload with a non-empty
// evidence_list wins.
var payloadExtractors = []payloadExtractor{
	{
		name: "model",
		extract: func(report map[string]interface{}) interface{} {
			list, _ := report["model_attestations"].([]interface{})
			for _, item := range list {
				if entry, ok := item.(map[string]interface{}); ok && hasEvidence(entry["nvidia_payload"]) {
					return entry["nvidia_payload"]
				}
			}
			return nil
		},
	},
	{
		name: "gateway",
		extract: func(report map[string]interface{}) interface{} {
			gateway, _ := report["gateway_attestation"].(map[string]interface{})
			if gateway == nil {
				return nil
			}
			return gateway["nvidia_payload"]
		},
	},
	{
		name: "direct",
		extract: func(report map[string]interface{}) interface{} {
			return report["nvidia_payload"]
		},
	},
}

// decodePayload accepts a payload as a JSON object or as a JSON encoded string.
func decodePayload(v interface{}) (map[string]interface{}, bool) {
	switch t := v.(type) {
	case map[string]interface{}:
		return t, true
	case string:
		var obj map[string]interface{}
		if err := json.Unmarshal([]byte(t), &obj); err != nil || obj == nil {
			return nil, false
		}
		return obj, true
	default:
		return nil, false
	}
}

func hasEvidence(v interface{}) bool {
	payload, ok := decodePayload(v)
	if !ok {
		return false
	}
	list, _ := payload["evidence_list"].([]interface{})
	return len(list) > 0
}

// selectPayload returns the first candidate payload with a non-empty evidence list.
func selectPayload(report map[string]interface{}) (map[string]interface{}, string, bool) {
	for _, extractor := range payloadExtractors {
		raw := extractor.extract(report)
		if hasEvidence(raw) {
			payload, _ := decodePayload(raw)
			return payload, extractor.name, true
		}
	}
	return nil, "", false
}

// reduceEvidence folds an evidence list into one expectations record: the first present value
// wins for every scalar, measurements of all entries are concatenated.
func reduceEvidence(payload map[string]interface{}) Expectations {
	var res Expectations

	list, _ := payload["evidence_list"].([]interface{})
	for _, item := range list {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		if len(res.Arch) == 0 {
			res.Arch = stringField(entry, "arch")
		}
		if len(res.DeviceCertHash) == 0 {
			res.DeviceCertHash = stringField(entry, "device_cert_hash", "deviceCertHash")
			if len(res.DeviceCertHash) == 0 {
				res.DeviceCertHash = certificateHash(stringField(entry, "certificate"))
			}
		}
		if len(res.RimHash) == 0 {
			res.RimHash = stringField(entry, "rim_hash", "rimHash", "driver_rim_hash")
		}
		if len(res.UEID) == 0 {
			res.UEID = stringField(entry, "ueid")
		}

		res.Measurements = append(res.Measurements, measurementHashes(entry)...)
	}

	if len(res.Arch) == 0 {
		res.Arch = stringField(payload, "arch")
	}

	return res
}

func measurementHashes(entry map[string]interface{}) []string {
	var res []string

	if single := stringField(entry, "measurement"); len(single) > 0 {
		res = append(res, single)
	}

	list, _ := entry["measurements"].([]interface{})
	for _, item := range list {
		switch t := item.(type) {
		case string:
			if s := strings.TrimSpace(t); len(s) > 0 {
				res = append(res, s)
			}
		case map[string]interface{}:
			if s := stringField(t, "hash", "digest", "value"); len(s) > 0 {
				res = append(res, s)
			}
		}
	}

	return res
}

// certificateHash is the SHA-256 of the decoded certificate chain, or of the raw value when it is not base64.
func certificateHash(cert string) string {
	if len(cert) == 0 {
		return ""
	}

	data, err := base64.StdEncoding.DecodeString(cert)
	if err != nil {
		data = []byte(cert)
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func stringField(m map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if s, ok := m[key].(string); ok {
			if s = strings.TrimSpace(s); len(s) > 0 {
				return s
			}
		}
	}
	return ""
}
