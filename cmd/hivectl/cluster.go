package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hiveops/hivectl/pkg/config"
	"github.com/hiveops/hivectl/pkg/task"
)

const clusterChartRef = "hive-charts/cluster-base"

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Manage cluster-level shared services",
}

func init() {
	clusterCmd.AddCommand(clusterListCmd)
	clusterCmd.AddCommand(clusterInfoCmd)
	clusterCmd.AddCommand(clusterSetupCmd)
	clusterCmd.AddCommand(clusterResetCmd)

	clusterSetupCmd.Flags().StringP("namespace", "n", "", "Namespace to create the shared services in")
	clusterSetupCmd.Flags().String("release", "hive-cluster", "Shared services release name")
	clusterSetupCmd.Flags().String("chart-ref", clusterChartRef, "Shared services chart reference")
	clusterSetupCmd.Flags().String("chart-version", "", "Shared services chart version")

	clusterResetCmd.Flags().StringP("namespace", "n", "", "Namespace to tear down")
	clusterResetCmd.Flags().String("release", "hive-cluster", "Shared services release name")
	clusterResetCmd.Flags().Bool("force", false, "Skip the namespace-exists check and delete what is found")

	clusterInfoCmd.Flags().StringP("namespace", "n", "", "Namespace to inspect")
}

var clusterListCmd = &cobra.Command{
	Use:   "list",
	Short: "List namespaces on the cluster",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		namespaces, err := a.engine.Cluster.ListNamespaces(cmd.Context())
		if err != nil {
			return err
		}
		for _, ns := range namespaces {
			fmt.Println(ns)
		}
		return nil
	},
}

var clusterInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the network pods in a namespace",
	RunE: func(cmd *cobra.Command, args []string) error {
		namespace, _ := cmd.Flags().GetString("namespace")
		if namespace == "" {
			return fmt.Errorf("--namespace is required")
		}

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		nodes, err := a.engine.DiscoverNodes(cmd.Context(), namespace)
		if err != nil {
			return err
		}
		if len(nodes) == 0 {
			fmt.Printf("No network nodes in namespace %s\n", namespace)
			return nil
		}

		fmt.Printf("%-12s %-8s %-12s %s\n", "ALIAS", "NODE ID", "ACCOUNT", "POD")
		for _, node := range nodes {
			fmt.Printf("%-12s %-8d %-12s %s\n", node.Alias, node.NodeID, node.AccountID.String(), node.PodName)
		}
		return nil
	},
}

var clusterSetupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Install cluster-level shared services",
	RunE: func(cmd *cobra.Command, args []string) error {
		namespace, _ := cmd.Flags().GetString("namespace")
		release, _ := cmd.Flags().GetString("release")
		chartRef, _ := cmd.Flags().GetString("chart-ref")
		chartVersion, _ := cmd.Flags().GetString("chart-version")
		cfg := config.NewTracked(&config.ClusterSetupConfig{
			Namespace:    namespace,
			Release:      release,
			ChartRef:     chartRef,
			ChartVersion: chartVersion,
		})
		return runCommand(cmd, namespace, cfg, func(a *app) *task.List {
			return a.engine.ClusterSetupSteps(cfg.Use("Namespace", "Release", "ChartRef", "ChartVersion"))
		})
	},
}

var clusterResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Tear down shared services, PVCs, and the namespace",
	RunE: func(cmd *cobra.Command, args []string) error {
		namespace, _ := cmd.Flags().GetString("namespace")
		release, _ := cmd.Flags().GetString("release")
		force, _ := cmd.Flags().GetBool("force")
		cfg := config.NewTracked(&config.ClusterResetConfig{
			Namespace: namespace,
			Release:   release,
			Force:     force,
		})
		return runCommand(cmd, namespace, cfg, func(a *app) *task.List {
			return a.engine.ClusterResetSteps(cfg.Use("Namespace", "Release", "Force"))
		})
	},
}
