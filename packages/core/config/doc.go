// Package config handles configuration loading and management for attest.
//
// Configuration comes from .attest.config.json / .attest.config.yaml files
// (or an explicit path), merged over defaults. Files can be checked against
// the embedded JSON schema before use, which is what `attest validate`
// does.
package config
