// Package chart defines the Helm collaborator boundary and the values-file
// rendering used by network deploys.
package chart
