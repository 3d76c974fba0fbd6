// Package vault provides the vault type constants.
package vault

// Type represents the type of vault.
type Type string

const (
	// TypeDotEnv reads secrets from the process environment (for development).
	TypeDotEnv Type = "dotenv"
)
