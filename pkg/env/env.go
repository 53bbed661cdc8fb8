// Package env reads process environment variables with fallbacks.
package env

import (
	"os"
	"strconv"
	"strings"
)

// First returns the first non-blank value among keys, or "".
func First(keys ...string) string {
	for _, key := range keys {
		if val := strings.TrimSpace(os.Getenv(key)); val != "" {
			return val
		}
	}
	return ""
}

// Get returns the value of key or fallback when unset or blank.
func Get(key, fallback string) string {
	if val := First(key); val != "" {
		return val
	}
	return fallback
}

// Bool parses key with strconv.ParseBool; unparsable values yield fallback.
func Bool(key string, fallback bool) bool {
	val := First(key)
	if val == "" {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return b
}
