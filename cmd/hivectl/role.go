package main

import (
	"github.com/spf13/cobra"

	"github.com/hiveops/hivectl/pkg/config"
	"github.com/hiveops/hivectl/pkg/task"
)

// Cluster roles are not namespaced, so role commands serialize on a
// shared lease scope instead of a network namespace.
const roleLeaseScope = "cluster"

var roleCmd = &cobra.Command{
	Use:   "role",
	Short: "Manage cluster roles for network operators",
}

func init() {
	roleCmd.AddCommand(roleRegisterCmd)
	roleCmd.AddCommand(roleLoginCmd)
	roleCmd.AddCommand(roleDeleteCmd)

	roleRegisterCmd.Flags().String("name", "", "Cluster role name")
	roleRegisterCmd.Flags().StringSlice("rules", nil, "Role rules as apiGroup:resource:verbs, comma-separated")

	roleLoginCmd.Flags().String("name", "", "Cluster role to bind")
	roleLoginCmd.Flags().String("service-account", "", "Service account to bind as namespace:name")

	roleDeleteCmd.Flags().String("name", "", "Cluster role to delete")
}

var roleRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a cluster role from access rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		rules, _ := cmd.Flags().GetStringSlice("rules")
		cfg := config.NewTracked(&config.RoleRegisterConfig{
			Name:  name,
			Rules: rules,
		})
		return runCommand(cmd, roleLeaseScope, cfg, func(a *app) *task.List {
			return a.engine.RoleRegisterSteps(cfg.Use("Name", "Rules"))
		})
	},
}

var roleLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Bind a service account to a registered cluster role",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		serviceAccount, _ := cmd.Flags().GetString("service-account")
		cfg := config.NewTracked(&config.RoleLoginConfig{
			Name:           name,
			ServiceAccount: serviceAccount,
		})
		return runCommand(cmd, roleLeaseScope, cfg, func(a *app) *task.List {
			return a.engine.RoleLoginSteps(cfg.Use("Name", "ServiceAccount"))
		})
	},
}

var roleDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a cluster role",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		cfg := config.NewTracked(&config.RoleDeleteConfig{Name: name})
		return runCommand(cmd, roleLeaseScope, cfg, func(a *app) *task.List {
			return a.engine.RoleDeleteSteps(cfg.Use("Name"))
		})
	},
}
