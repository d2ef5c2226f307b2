// Package envfile loads environment-variable overrides for containerized
// builds and provides redaction for displaying them safely.
//
// Two file formats are supported, selected by extension: ".env" files are
// parsed as dotenv, everything else as a flat JSON object of string values.
package envfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// sensitivePatterns defines the patterns used to identify sensitive
// environment variables. Values of variables matching any of these patterns
// (case-insensitive) are masked before display.
var sensitivePatterns = []string{
	"PASSWORD",
	"PASSWD",
	"SECRET",
	"TOKEN",
	"API_KEY",
	"APIKEY",
	"PRIVATE_KEY",
	"CREDENTIAL",
	"AUTH",
}

// Load reads the override file at path and returns its variables.
// Any read or parse failure is reported with the filename so the user can
// tell which of possibly several configured files is at fault.
func Load(path string) (map[string]string, error) {
	if strings.EqualFold(filepath.Ext(path), ".env") {
		vars, err := godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("could not read environment variables from file %s: %w", path, err)
		}
		return vars, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read environment variables from file %s: %w", path, err)
	}

	var vars map[string]string
	if err := json.Unmarshal(raw, &vars); err != nil {
		return nil, fmt.Errorf("could not read environment variables from file %s: %w", path, err)
	}
	return vars, nil
}

// Redact returns a copy of vars with the values of sensitive-looking keys
// replaced by a mask. The input map is not modified.
func Redact(vars map[string]string) map[string]string {
	redacted := make(map[string]string, len(vars))
	for key, value := range vars {
		if isSensitive(key) {
			redacted[key] = "****"
		} else {
			redacted[key] = value
		}
	}
	return redacted
}

// isSensitive checks if an environment variable key matches any of the
// sensitive patterns. The check is case-insensitive and uses substring
// matching.
func isSensitive(key string) bool {
	upperKey := strings.ToUpper(key)

	for _, pattern := range sensitivePatterns {
		if strings.Contains(upperKey, pattern) {
			return true
		}
	}

	return false
}
