package config

// GetAuthSkipperPaths returns a list of paths to skip authentication for
func GetAuthSkipperPaths() []string {
	// Health probe and the read-only reporting surface stay public
	return []string{"/health", "/graphql", "/playground"}
}
