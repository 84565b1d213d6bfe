package route

import (
	"fmt"
	"strings"
)

// ParseArgs parses flag-style tokens ("--key value ...") into an
// argument map. A flag followed by another flag, or by nothing, takes
// the value "true". Values stay strings; type coercion happens later
// against the parameter schema. A bare token outside a flag position
// is an error.
func ParseArgs(tokens []string) (map[string]any, error) {
	args := make(map[string]any, len(tokens)/2)
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if !strings.HasPrefix(tok, "--") {
			return nil, fmt.Errorf("unexpected token %q", tok)
		}
		key := strings.TrimPrefix(tok, "--")
		if key == "" {
			return nil, fmt.Errorf("empty flag name")
		}
		if i+1 < len(tokens) && !strings.HasPrefix(tokens[i+1], "--") {
			args[key] = tokens[i+1]
			i++
		} else {
			args[key] = "true"
		}
	}
	return args, nil
}
