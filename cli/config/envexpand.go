// Package config handles YAML config file loading for the drayage CLI.
package config

import (
	"os"
	"regexp"
)

// envVarPattern matches ${VAR} and ${VAR:-default} references. Only the
// braced forms expand; a literal $ in a value (an FTP password, say) is
// left alone.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnv substitutes environment variables into raw config text before
// YAML decoding, so drayage.yaml can carry secrets by reference:
//
//	redis:
//	  url: ${DRAYAGE_REDIS_URL:-redis://localhost:6379}
//	edination:
//	  api_key: ${EDINATION_API_KEY}
//
// Unset variables without defaults expand to empty string (not an error).
// Required secrets fail at downstream validation, e.g. the EDINation
// client rejecting an empty API key.
func ExpandEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 3 {
			return match
		}

		if value, ok := os.LookupEnv(groups[1]); ok && value != "" {
			return value
		}
		// Unset or empty: the ${VAR:-default} fallback, itself empty
		// for the bare ${VAR} form.
		return groups[2]
	})
}
