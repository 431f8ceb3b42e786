// Package hash provides path hashing utilities.
//
// Hashes give every scenario stable, short identifiers:
//   - Container naming (tb-{hash}-{name})
//   - Scenario definition fingerprints stored as container labels
//
// The hash is the first 8 characters of MD5(path), providing a good
// balance between uniqueness and readability.
//
// Example usage:
//
//	// Get 8-character hash for a scenario file
//	h := hash.PathHash("/workspace/myproject/testbed.yaml")
//	// Returns: "a1b2c3d4"
package hash
