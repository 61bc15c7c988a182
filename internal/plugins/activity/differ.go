package activity

import (
	"encoding/json"
	"fmt"
	"sort"
)

// ChangedFields returns the keys of after whose value differs from the
// same key in before, compared by canonical JSON serialization. Keys that
// exist only in before are not reported. Either snapshot missing yields
// an empty result. Keys are returned in lexical order.
func ChangedFields(before, after map[string]any) []string {
	if before == nil || after == nil {
		return nil
	}

	keys := make([]string, 0, len(after))
	for k := range after {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var changed []string
	for _, k := range keys {
		if canonical(before[k]) != canonical(after[k]) {
			changed = append(changed, k)
		}
	}
	return changed
}

// canonical serializes v with sorted map keys so structurally equal
// values compare equal.
func canonical(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%#v", v)
	}
	return string(b)
}
