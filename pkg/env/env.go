// Package env provides the one raw environment lookup the logger needs
// before config is loaded.
package env

import "os"

// Get reads key from the environment, returning fallback when the
// variable is unset or blank.
func Get(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}
