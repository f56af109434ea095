package main

import (
	"github.com/spf13/cobra"

	"github.com/hiveops/hivectl/pkg/config"
	"github.com/hiveops/hivectl/pkg/task"
)

const mirrorChartRef = "hive-charts/mirror-node"

var mirrorCmd = &cobra.Command{
	Use:   "mirror-node",
	Short: "Manage the mirror node deployment",
}

func init() {
	mirrorCmd.AddCommand(mirrorDeployCmd)
	mirrorCmd.AddCommand(mirrorDestroyCmd)

	addMirrorFlags(mirrorDeployCmd)
	addMirrorFlags(mirrorDestroyCmd)
}

func addMirrorFlags(c *cobra.Command) {
	c.Flags().StringP("namespace", "n", "", "Kubernetes namespace of the network")
	c.Flags().String("release", "mirror", "Mirror node release name")
	c.Flags().String("chart-ref", mirrorChartRef, "Mirror node chart reference")
	c.Flags().String("chart-version", "", "Mirror node chart version")
}

func mirrorConfigFromFlags(cmd *cobra.Command) *config.MirrorConfig {
	namespace, _ := cmd.Flags().GetString("namespace")
	release, _ := cmd.Flags().GetString("release")
	chartRef, _ := cmd.Flags().GetString("chart-ref")
	chartVersion, _ := cmd.Flags().GetString("chart-version")
	return &config.MirrorConfig{
		Namespace:    namespace,
		Release:      release,
		ChartRef:     chartRef,
		ChartVersion: chartVersion,
	}
}

var mirrorDeployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy the mirror node and wait for readiness",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := mirrorConfigFromFlags(cmd)
		tracked := config.NewTracked(cfg)
		return runCommand(cmd, cfg.Namespace, tracked, func(a *app) *task.List {
			return a.engine.MirrorDeploySteps(tracked.Use("Namespace", "Release", "ChartRef", "ChartVersion"))
		})
	},
}

var mirrorDestroyCmd = &cobra.Command{
	Use:   "destroy",
	Short: "Uninstall the mirror node",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := mirrorConfigFromFlags(cmd)
		tracked := config.NewTracked(cfg)
		return runCommand(cmd, cfg.Namespace, tracked, func(a *app) *task.List {
			return a.engine.MirrorDestroySteps(tracked.Use("Namespace", "Release"))
		})
	},
}
