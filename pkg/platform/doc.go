// Package platform reads consensus node platform status from the
// Prometheus-style metrics endpoint each node exposes, and waits for target
// statuses through temporary port-forwards.
package platform
