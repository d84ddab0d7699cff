package verdict

import (
	"strings"
)

const maxReportedCandidates = 3

// SigningAddressCandidates collects every signer address found in the attestation evidence:
// top level, gateway node(s), model attestations and the all-attestations list.
// Duplicates are removed case-insensitively, first spelling wins.
func SigningAddressCandidates(evidence map[string]interface{}) []string {
	if evidence == nil {
		return nil
	}

	var found []string
	add := func(node interface{}) {
		obj, ok := node.(map[string]interface{})
		if !ok {
			return
		}
		if addr, ok := obj["signing_address"].(string); ok {
			if addr = strings.TrimSpace(addr); len(addr) > 0 {
				found = append(found, addr)
			}
		}
	}

	add(evidence)
	eachNode(evidence["gateway_attestation"], add)
	eachNode(evidence["model_attestations"], add)
	eachNode(evidence["all_attestations"], add)

	return dedupFold(found)
}

// eachNode visits an object or every element of a list.
func eachNode(v interface{}, fn func(interface{})) {
	switch t := v.(type) {
	case []interface{}:
		for _, item := range t {
			fn(item)
		}
	case map[string]interface{}:
		fn(t)
	}
}

func dedupFold(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}
