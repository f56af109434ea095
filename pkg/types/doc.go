// Package types holds shared domain types used across hivectl packages.
package types
