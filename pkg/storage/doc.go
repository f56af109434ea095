// Package storage provides the BoltDB-backed local state store. It remembers
// per-namespace flag values between invocations (for example whether gossip
// keys were already generated) and keeps a history of command runs for
// `hivectl cluster info`.
package storage
