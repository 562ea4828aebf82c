// Package config builds the client configuration from defaults, an optional
// JSON file and command-line flags, in that order.
package config
