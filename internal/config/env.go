package config

import (
	"fmt"
	"os"
	"regexp"
)

// envPattern matches ${VAR} and ${VAR:-default} placeholders.
var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// ExpandEnv substitutes environment variable placeholders in raw config
// content. A set, non-empty variable wins; otherwise the placeholder's
// default applies; a placeholder with neither is a load error, so typos
// in secret names surface at startup instead of at send time.
func ExpandEnv(content []byte) ([]byte, error) {
	var missing []string
	expanded := envPattern.ReplaceAllFunc(content, func(match []byte) []byte {
		groups := envPattern.FindSubmatch(match)
		name := string(groups[1])
		if value := os.Getenv(name); value != "" {
			return []byte(value)
		}
		if len(groups[2]) > 0 {
			return groups[3]
		}
		missing = append(missing, name)
		return match
	})
	if len(missing) > 0 {
		return nil, fmt.Errorf("environment variable %s is not set and has no default", missing[0])
	}
	return expanded, nil
}
