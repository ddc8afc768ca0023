package frontmatter

import (
	"strings"

	"github.com/inful/mdfp"
)

// Fingerprint computes the canonical content fingerprint of a converted
// document. The fingerprint field itself is excluded so the value is stable
// when re-computed over its own output.
func Fingerprint(fields map[string]any, body []byte) (string, error) {
	forHash := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == mdfp.FingerprintField {
			continue
		}
		forHash[k] = v
	}
	serialized, err := SerializeYAML(forHash, "\n")
	if err != nil {
		return "", err
	}
	return mdfp.CalculateFingerprintFromParts(strings.TrimSuffix(string(serialized), "\n"), string(body)), nil
}
