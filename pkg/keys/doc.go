// Package keys generates and loads the per-node gossip signing and gRPC TLS
// key material stored in the local keys directory.
package keys
