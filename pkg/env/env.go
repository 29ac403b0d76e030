package env

import "os"

// Get reads key from the process environment. Unset and empty both fall back
// to def, so a blank variable cannot clear a configured default.
func Get(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}
