package main

import (
	"fmt"
	"os"
	"strconv"
)

// GetEnvDefault returns the environment value for key, or def if unset
func GetEnvDefault(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

// getEnvUint parses an unsigned environment value, falling back to def
func getEnvUint(key string, def uint64) (uint64, error) {
	v := GetEnvDefault(key, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
