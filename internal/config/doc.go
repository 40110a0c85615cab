// Package config provides configuration loading, merging, and validation
// facilities for the openlockr client and the reference remote store.
//
// Configuration is assembled from multiple sources in the following priority
// order (later sources override earlier non-zero fields):
//  1. Environment variables
//  2. Command-line flags
//  3. JSON config file
//
// The entry points are [GetClientConfig] for the CLI host and
// [GetServerConfig] for the remote store.
package config
