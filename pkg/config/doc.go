// Package config defines the typed per-command configuration structs the
// CLI resolves flags into, validates them, tracks which fields get read,
// and checkpoints selected flag values across invocations.
package config
