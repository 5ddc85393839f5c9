package cascade

import (
	"sort"
	"strings"
)

// FormatLeaf renders a leaf item through the spec's token template, for
// example "{value} {unit}". Tokens with no matching key are dropped. With no
// template, keys render as "k=v" pairs in key order so the output stays
// deterministic.
func FormatLeaf(template string, item map[string]string) string {
	if template == "" {
		keys := make([]string, 0, len(item))
		for k := range item {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + "=" + item[k]
		}
		return strings.Join(parts, " ")
	}
	out := template
	for k, v := range item {
		out = strings.ReplaceAll(out, "{"+k+"}", v)
	}
	out = dropUnusedTokens(out)
	return strings.Join(strings.Fields(out), " ")
}

func dropUnusedTokens(s string) string {
	for {
		open := strings.Index(s, "{")
		if open < 0 {
			return s
		}
		end := strings.Index(s[open:], "}")
		if end < 0 {
			return s
		}
		s = s[:open] + s[open+end+1:]
	}
}
