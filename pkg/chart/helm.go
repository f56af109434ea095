package chart

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hiveops/hivectl/pkg/log"
)

// Helm is a thin Manager implementation shelling out to the helm CLI.
type Helm struct {
	// Kubeconfig overrides the default kubeconfig resolution when set.
	Kubeconfig string

	logger zerolog.Logger
}

// NewHelm creates a helm-backed chart manager.
func NewHelm(kubeconfig string) *Helm {
	return &Helm{
		Kubeconfig: kubeconfig,
		logger:     log.WithComponent("helm"),
	}
}

func (h *Helm) run(ctx context.Context, args ...string) (string, error) {
	if h.Kubeconfig != "" {
		args = append(args, "--kubeconfig", h.Kubeconfig)
	}
	h.logger.Debug().Strs("args", args).Msg("helm")

	out, err := exec.CommandContext(ctx, "helm", args...).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("helm %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

// IsInstalled reports whether the release exists in the namespace.
func (h *Helm) IsInstalled(ctx context.Context, namespace, release string) (bool, error) {
	out, err := h.run(ctx, "list", "-n", namespace, "-q")
	if err != nil {
		return false, err
	}
	for _, name := range strings.Fields(out) {
		if name == release {
			return true, nil
		}
	}
	return false, nil
}

// Install installs a chart release.
func (h *Helm) Install(ctx context.Context, namespace, release, chartRef, version, valuesFile string) error {
	args := []string{"install", release, chartRef, "-n", namespace, "--create-namespace"}
	if version != "" {
		args = append(args, "--version", version)
	}
	if valuesFile != "" {
		args = append(args, "-f", valuesFile)
	}
	_, err := h.run(ctx, args...)
	return err
}

// Upgrade upgrades a chart release in place.
func (h *Helm) Upgrade(ctx context.Context, namespace, release, chartRef, version, valuesFile string) error {
	args := []string{"upgrade", release, chartRef, "-n", namespace, "--reuse-values"}
	if version != "" {
		args = append(args, "--version", version)
	}
	if valuesFile != "" {
		args = append(args, "-f", valuesFile)
	}
	_, err := h.run(ctx, args...)
	return err
}

// Uninstall removes a chart release.
func (h *Helm) Uninstall(ctx context.Context, namespace, release string) error {
	_, err := h.run(ctx, "uninstall", release, "-n", namespace)
	return err
}
