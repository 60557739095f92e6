package catalog

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CanonicalJSON renders a definition's schema as indented JSON. Object keys
// come out sorted, so two renderings of the same schema compare equal.
func CanonicalJSON(d Definition) string {
	b, err := json.MarshalIndent(d.Spec, "", "  ")
	if err != nil {
		return ""
	}
	return string(b)
}

// UnifiedDiff returns a simple line diff between two strings.
func UnifiedDiff(a, b string) string {
	if a == b {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("--- a\n")
	sb.WriteString("+++ b\n")
	al := strings.Split(a, "\n")
	bl := strings.Split(b, "\n")
	i, j := 0, 0
	for i < len(al) || j < len(bl) {
		if i < len(al) && j < len(bl) && al[i] == bl[j] {
			i++
			j++
			continue
		}
		if i < len(al) {
			fmt.Fprintf(&sb, "-%s\n", al[i])
			i++
		}
		if j < len(bl) {
			fmt.Fprintf(&sb, "+%s\n", bl[j])
			j++
		}
	}
	return sb.String()
}

// Diff renders the schema difference between two versions of a tool, or the
// empty string when either version is missing.
func (s *Store) Diff(name string, v1, v2 int) string {
	d1, ok1 := s.Get(name, v1)
	d2, ok2 := s.Get(name, v2)
	if !ok1 || !ok2 {
		return ""
	}
	return UnifiedDiff(CanonicalJSON(d1), CanonicalJSON(d2))
}
