// Package cluster defines the Kubernetes collaborator boundary: the
// operations hivectl consumes (pod listing, exec, copy, port-forward, PVC
// and secret lifecycle) without reimplementing cluster behavior. Kubectl is
// the thin shelling-out implementation; Fake backs tests.
package cluster
