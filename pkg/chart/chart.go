package chart

import "context"

// Manager is the Helm collaborator boundary. Install and upgrade take a
// values file path produced by WriteValuesFile rather than inline --set
// strings, so deployed values stay inspectable after the fact.
type Manager interface {
	IsInstalled(ctx context.Context, namespace, release string) (bool, error)
	Install(ctx context.Context, namespace, release, chartRef, version, valuesFile string) error
	Upgrade(ctx context.Context, namespace, release, chartRef, version, valuesFile string) error
	Uninstall(ctx context.Context, namespace, release string) error
}
