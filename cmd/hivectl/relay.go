package main

import (
	"github.com/spf13/cobra"

	"github.com/hiveops/hivectl/pkg/config"
	"github.com/hiveops/hivectl/pkg/task"
)

const relayChartRef = "hive-charts/json-rpc-relay"

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Manage JSON-RPC relay deployments",
}

func init() {
	relayCmd.AddCommand(relayDeployCmd)
	relayCmd.AddCommand(relayDestroyCmd)

	addRelayFlags(relayDeployCmd)
	addRelayFlags(relayDestroyCmd)
}

func addRelayFlags(c *cobra.Command) {
	c.Flags().StringP("namespace", "n", "", "Kubernetes namespace of the network")
	c.Flags().String("release", "relay", "Relay release name")
	c.Flags().StringSlice("node-aliases", nil, "Aliases of the nodes the relay fronts")
	c.Flags().String("chart-ref", relayChartRef, "Relay chart reference")
	c.Flags().String("chart-version", "", "Relay chart version")
}

func relayConfigFromFlags(cmd *cobra.Command) *config.RelayConfig {
	namespace, _ := cmd.Flags().GetString("namespace")
	release, _ := cmd.Flags().GetString("release")
	aliases, _ := cmd.Flags().GetStringSlice("node-aliases")
	chartRef, _ := cmd.Flags().GetString("chart-ref")
	chartVersion, _ := cmd.Flags().GetString("chart-version")
	return &config.RelayConfig{
		Namespace:    namespace,
		Release:      release,
		NodeAliases:  aliases,
		ChartRef:     chartRef,
		ChartVersion: chartVersion,
	}
}

var relayDeployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy a relay fronting the given nodes and wait for readiness",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := relayConfigFromFlags(cmd)
		tracked := config.NewTracked(cfg)
		return runCommand(cmd, cfg.Namespace, tracked, func(a *app) *task.List {
			return a.engine.RelayDeploySteps(tracked.Use("Namespace", "Release", "NodeAliases", "ChartRef", "ChartVersion"))
		})
	},
}

var relayDestroyCmd = &cobra.Command{
	Use:   "destroy",
	Short: "Uninstall a relay",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := relayConfigFromFlags(cmd)
		tracked := config.NewTracked(cfg)
		return runCommand(cmd, cfg.Namespace, tracked, func(a *app) *task.List {
			return a.engine.RelayDestroySteps(tracked.Use("Namespace", "Release"))
		})
	},
}
