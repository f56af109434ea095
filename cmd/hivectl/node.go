package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hiveops/hivectl/pkg/config"
	"github.com/hiveops/hivectl/pkg/lifecycle"
	"github.com/hiveops/hivectl/pkg/task"
	"github.com/hiveops/hivectl/pkg/types"
)

const networkChartRef = "hive-charts/network"

var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Manage network nodes",
}

func init() {
	nodeCmd.AddCommand(nodeSetupCmd)
	nodeCmd.AddCommand(nodeStartCmd)
	nodeCmd.AddCommand(nodeStopCmd)
	nodeCmd.AddCommand(nodeKeysCmd)
	nodeCmd.AddCommand(nodeRefreshCmd)
	nodeCmd.AddCommand(nodeLogsCmd)
	nodeCmd.AddCommand(nodeAddCmd)
	nodeCmd.AddCommand(nodeAddPrepareCmd)
	nodeCmd.AddCommand(nodeAddSubmitCmd)
	nodeCmd.AddCommand(nodeAddExecuteCmd)
	nodeCmd.AddCommand(nodeUpdateCmd)
	nodeCmd.AddCommand(nodeUpdatePrepareCmd)
	nodeCmd.AddCommand(nodeUpdateSubmitCmd)
	nodeCmd.AddCommand(nodeUpdateExecuteCmd)
	nodeCmd.AddCommand(nodeDeleteCmd)
	nodeCmd.AddCommand(nodeDeletePrepareCmd)
	nodeCmd.AddCommand(nodeDeleteSubmitCmd)
	nodeCmd.AddCommand(nodeDeleteExecuteCmd)
	nodeCmd.AddCommand(nodePrepareUpgradeCmd)
	nodeCmd.AddCommand(nodeFreezeUpgradeCmd)
	nodeCmd.AddCommand(nodeDownloadCmd)
}

func defaultCacheDir() string {
	return filepath.Join(defaultDataDir(), "cache")
}

func defaultKeysDir() string {
	return filepath.Join(defaultDataDir(), "keys")
}

// Flag groups shared by several subcommands.

func addNodeCommonFlags(c *cobra.Command) {
	c.Flags().StringP("namespace", "n", "", "Kubernetes namespace of the network")
	c.Flags().StringSlice("node-aliases", nil, "Comma-separated node aliases to operate on")
	c.Flags().String("cache-dir", defaultCacheDir(), "Local cache directory for staged artifacts")
	c.Flags().String("release-tag", "", "Software release tag to stage")
	c.Flags().String("app", "", "Alternate application jar name (skips proxy checks)")
}

func addOperatorFlags(c *cobra.Command) {
	c.Flags().String("operator-id", "0.0.2", "Operator account id (shard.realm.num)")
	c.Flags().String("operator-key", "", "Path to the operator private key")
}

func nodeCommonFromFlags(cmd *cobra.Command) config.NodeCommon {
	namespace, _ := cmd.Flags().GetString("namespace")
	aliases, _ := cmd.Flags().GetStringSlice("node-aliases")
	cacheDir, _ := cmd.Flags().GetString("cache-dir")
	releaseTag, _ := cmd.Flags().GetString("release-tag")
	app, _ := cmd.Flags().GetString("app")
	return config.NodeCommon{
		Namespace:   namespace,
		NodeAliases: aliases,
		CacheDir:    cacheDir,
		ReleaseTag:  releaseTag,
		App:         app,
	}
}

func ledgerFromFlags(cmd *cobra.Command) (config.Ledger, error) {
	operatorID, _ := cmd.Flags().GetString("operator-id")
	operatorKey, _ := cmd.Flags().GetString("operator-key")

	account, err := types.ParseAccountID(operatorID)
	if err != nil {
		return config.Ledger{}, err
	}
	return config.Ledger{OperatorID: account, OperatorKeyPath: operatorKey}, nil
}

// rememberedBool resolves a boolean flag against the persisted flag store:
// an explicitly passed flag wins, otherwise the value remembered from a
// previous invocation in the same namespace.
func rememberedBool(cmd *cobra.Command, a *app, namespace, flagName, storeName string, current bool) bool {
	if cmd.Flags().Changed(flagName) {
		return current
	}
	if v, ok, err := a.engine.Flags.Bool(namespace, storeName); err == nil && ok {
		return v
	}
	return current
}

var nodeSetupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Stage node software into pods and run platform setup",
	RunE: func(cmd *cobra.Command, args []string) error {
		localBuild, _ := cmd.Flags().GetString("local-build-path")
		cfg := config.NewTracked(&config.NodeSetupConfig{
			NodeCommon:     nodeCommonFromFlags(cmd),
			LocalBuildPath: localBuild,
		})
		return runCommand(cmd, cfg.Use().Namespace, cfg, func(a *app) *task.List {
			return a.engine.SetupSteps(cfg.Use("Namespace", "NodeAliases", "ReleaseTag", "LocalBuildPath"))
		})
	},
}

var nodeStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start nodes and wait until the network is active",
	RunE: func(cmd *cobra.Command, args []string) error {
		ledgerCfg, err := ledgerFromFlags(cmd)
		if err != nil {
			return err
		}
		debugAlias, _ := cmd.Flags().GetString("debug-node-alias")
		stake, _ := cmd.Flags().GetBool("stake")
		cfg := config.NewTracked(&config.NodeStartConfig{
			NodeCommon:     nodeCommonFromFlags(cmd),
			Ledger:         ledgerCfg,
			DebugNodeAlias: debugAlias,
			Stake:          stake,
		})
		return runCommand(cmd, cfg.Use().Namespace, cfg, func(a *app) *task.List {
			return a.engine.StartSteps(cfg.Use("Namespace", "NodeAliases", "App",
				"DebugNodeAlias", "Stake", "OperatorID", "OperatorKeyPath"))
		})
	},
}

var nodeStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop nodes",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.NewTracked(&config.NodeStopConfig{NodeCommon: nodeCommonFromFlags(cmd)})
		return runCommand(cmd, cfg.Use().Namespace, cfg, func(a *app) *task.List {
			return a.engine.StopSteps(cfg.Use("Namespace", "NodeAliases"))
		})
	},
}

var nodeKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Generate gossip and TLS key material for nodes",
	RunE: func(cmd *cobra.Command, args []string) error {
		namespace, _ := cmd.Flags().GetString("namespace")
		aliases, _ := cmd.Flags().GetStringSlice("node-aliases")
		keysDir, _ := cmd.Flags().GetString("keys-dir")
		gossip, _ := cmd.Flags().GetBool("gossip-keys")
		tls, _ := cmd.Flags().GetBool("tls-keys")
		cfg := config.NewTracked(&config.NodeKeysConfig{
			Namespace:          namespace,
			NodeAliases:        aliases,
			KeysDir:            keysDir,
			GenerateGossipKeys: gossip,
			GenerateTLSKeys:    tls,
		})
		return runCommand(cmd, namespace, cfg, func(a *app) *task.List {
			resolved := cfg.Use("Namespace", "NodeAliases", "KeysDir", "GenerateGossipKeys", "GenerateTLSKeys")
			resolved.GenerateGossipKeys = rememberedBool(cmd, a, namespace, "gossip-keys", config.FlagGenerateGossipKeys, resolved.GenerateGossipKeys)
			resolved.GenerateTLSKeys = rememberedBool(cmd, a, namespace, "tls-keys", config.FlagGenerateTLSKeys, resolved.GenerateTLSKeys)
			return a.engine.KeysSteps(resolved)
		})
	},
}

var nodeRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Stop nodes, wipe saved state, re-stage software, and restart",
	RunE: func(cmd *cobra.Command, args []string) error {
		localBuild, _ := cmd.Flags().GetString("local-build-path")
		cfg := config.NewTracked(&config.NodeRefreshConfig{
			NodeCommon:     nodeCommonFromFlags(cmd),
			LocalBuildPath: localBuild,
		})
		return runCommand(cmd, cfg.Use().Namespace, cfg, func(a *app) *task.List {
			return a.engine.RefreshSteps(cfg.Use("Namespace", "NodeAliases", "ReleaseTag", "LocalBuildPath"))
		})
	},
}

var nodeLogsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Download node log directories to local disk",
	RunE: func(cmd *cobra.Command, args []string) error {
		namespace, _ := cmd.Flags().GetString("namespace")
		aliases, _ := cmd.Flags().GetStringSlice("node-aliases")
		outputDir, _ := cmd.Flags().GetString("output-dir")
		cfg := config.NewTracked(&config.NodeLogsConfig{
			Namespace:   namespace,
			NodeAliases: aliases,
			OutputDir:   outputDir,
		})
		return runReadCommand(cmd, namespace, cfg, func(a *app) *task.List {
			return a.engine.LogsSteps(cfg.Use("Namespace", "NodeAliases", "OutputDir"))
		})
	},
}

func addAddFlags(c *cobra.Command) {
	c.Flags().StringP("namespace", "n", "", "Kubernetes namespace of the network")
	c.Flags().String("keys-dir", defaultKeysDir(), "Directory holding node key material")
	c.Flags().String("cache-dir", defaultCacheDir(), "Local cache directory for staged artifacts")
	c.Flags().String("release-tag", "", "Software release tag to stage")
	c.Flags().String("output-dir", "", "Directory for the continuation record between phases")
	c.Flags().String("admin-key", "", "Path to the new node's admin key")
	c.Flags().String("gossip-endpoints", "", "Explicit gossip endpoints as host:port, comma-separated")
	c.Flags().String("grpc-endpoints", "", "Explicit gRPC endpoints as host:port, comma-separated")
	c.Flags().String("endpoint-type", string(types.EndpointTypeFQDN), "Endpoint synthesis type (FQDN|IP)")
	c.Flags().String("chart-ref", networkChartRef, "Network chart reference")
	c.Flags().String("chart-version", "", "Network chart version")
	c.Flags().Bool("gossip-keys", false, "Generate gossip keys for the new node")
	c.Flags().Bool("tls-keys", false, "Generate TLS keys for the new node")
	c.Flags().Bool("pvcs", false, "Network was deployed with persistent volume claims")
	c.Flags().Int64("min-stake", 0, "Minimum stake existing nodes must hold before the add proceeds")
	addOperatorFlags(c)
}

func addConfigFromFlags(cmd *cobra.Command) (*config.NodeAddConfig, error) {
	ledgerCfg, err := ledgerFromFlags(cmd)
	if err != nil {
		return nil, err
	}

	namespace, _ := cmd.Flags().GetString("namespace")
	keysDir, _ := cmd.Flags().GetString("keys-dir")
	cacheDir, _ := cmd.Flags().GetString("cache-dir")
	releaseTag, _ := cmd.Flags().GetString("release-tag")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	adminKey, _ := cmd.Flags().GetString("admin-key")
	gossipEndpoints, _ := cmd.Flags().GetString("gossip-endpoints")
	grpcEndpoints, _ := cmd.Flags().GetString("grpc-endpoints")
	endpointType, _ := cmd.Flags().GetString("endpoint-type")
	chartRef, _ := cmd.Flags().GetString("chart-ref")
	chartVersion, _ := cmd.Flags().GetString("chart-version")
	gossipKeys, _ := cmd.Flags().GetBool("gossip-keys")
	tlsKeys, _ := cmd.Flags().GetBool("tls-keys")
	pvcs, _ := cmd.Flags().GetBool("pvcs")
	minStake, _ := cmd.Flags().GetInt64("min-stake")

	return &config.NodeAddConfig{
		Namespace:          namespace,
		KeysDir:            keysDir,
		CacheDir:           cacheDir,
		ReleaseTag:         releaseTag,
		OutputDir:          outputDir,
		AdminKeyPath:       adminKey,
		Ledger:             ledgerCfg,
		GossipEndpoints:    gossipEndpoints,
		GrpcEndpoints:      grpcEndpoints,
		EndpointType:       types.EndpointType(endpointType),
		ChartRef:           chartRef,
		ChartVersion:       chartVersion,
		GenerateGossipKeys: gossipKeys,
		GenerateTLSKeys:    tlsKeys,
		PVCsEnabled:        pvcs,
		MinStake:           minStake,
	}, nil
}

// Per-phase field sets for read tracking. The combined commands take
// the union of their phases.
var (
	addPrepareFields = []string{"Namespace", "KeysDir", "CacheDir", "ReleaseTag", "OutputDir",
		"AdminKeyPath", "GossipEndpoints", "GrpcEndpoints", "EndpointType",
		"GenerateGossipKeys", "GenerateTLSKeys", "PVCsEnabled", "MinStake"}
	addSubmitFields  = []string{"Namespace", "OutputDir", "OperatorID", "OperatorKeyPath"}
	addExecuteFields = []string{"Namespace", "OutputDir", "CacheDir", "ReleaseTag", "KeysDir",
		"ChartRef", "ChartVersion", "OperatorID", "OperatorKeyPath"}
)

func fieldUnion(lists ...[]string) []string {
	var all []string
	for _, list := range lists {
		all = append(all, list...)
	}
	return all
}

func runAddCommand(cmd *cobra.Command, fields []string, build func(*lifecycle.Engine, *config.NodeAddConfig) *task.List) error {
	cfg, err := addConfigFromFlags(cmd)
	if err != nil {
		return err
	}
	tracked := config.NewTracked(cfg)
	return runCommand(cmd, cfg.Namespace, tracked, func(a *app) *task.List {
		resolved := tracked.Use(fields...)
		resolved.GenerateGossipKeys = rememberedBool(cmd, a, cfg.Namespace, "gossip-keys", config.FlagGenerateGossipKeys, resolved.GenerateGossipKeys)
		resolved.GenerateTLSKeys = rememberedBool(cmd, a, cfg.Namespace, "tls-keys", config.FlagGenerateTLSKeys, resolved.GenerateTLSKeys)
		return build(a.engine, resolved)
	})
}

var nodeAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new consensus node to the network",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAddCommand(cmd, fieldUnion(addPrepareFields, addSubmitFields, addExecuteFields), (*lifecycle.Engine).AddSteps)
	},
}

var nodeAddPrepareCmd = &cobra.Command{
	Use:   "add-prepare",
	Short: "Prepare a node add and save the continuation record",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAddCommand(cmd, addPrepareFields, (*lifecycle.Engine).AddPrepareSteps)
	},
}

var nodeAddSubmitCmd = &cobra.Command{
	Use:   "add-submit-transactions",
	Short: "Submit the node add ledger transactions from a saved record",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAddCommand(cmd, addSubmitFields, (*lifecycle.Engine).AddSubmitSteps)
	},
}

var nodeAddExecuteCmd = &cobra.Command{
	Use:   "add-execute",
	Short: "Apply a prepared and submitted node add to the cluster",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAddCommand(cmd, addExecuteFields, (*lifecycle.Engine).AddExecuteSteps)
	},
}

func addUpdateFlags(c *cobra.Command) {
	c.Flags().StringP("namespace", "n", "", "Kubernetes namespace of the network")
	c.Flags().String("node-alias", "", "Alias of the node to update")
	c.Flags().String("cache-dir", defaultCacheDir(), "Local cache directory for staged artifacts")
	c.Flags().String("release-tag", "", "Software release tag to stage")
	c.Flags().String("output-dir", "", "Directory for the continuation record between phases")
	c.Flags().String("new-account-id", "", "Move the node to this account id (recreates pods)")
	c.Flags().String("new-admin-key", "", "Path to the rotated admin key")
	c.Flags().String("tls-cert", "", "Path to the rotated TLS certificate")
	c.Flags().String("gossip-cert", "", "Path to the rotated gossip certificate")
	c.Flags().String("gossip-endpoints", "", "Explicit gossip endpoints as host:port, comma-separated")
	c.Flags().String("grpc-endpoints", "", "Explicit gRPC endpoints as host:port, comma-separated")
	c.Flags().String("endpoint-type", string(types.EndpointTypeFQDN), "Endpoint synthesis type (FQDN|IP)")
	c.Flags().String("chart-ref", networkChartRef, "Network chart reference")
	c.Flags().String("chart-version", "", "Network chart version")
	addOperatorFlags(c)
}

func updateConfigFromFlags(cmd *cobra.Command) (*config.NodeUpdateConfig, error) {
	ledgerCfg, err := ledgerFromFlags(cmd)
	if err != nil {
		return nil, err
	}

	namespace, _ := cmd.Flags().GetString("namespace")
	nodeAlias, _ := cmd.Flags().GetString("node-alias")
	cacheDir, _ := cmd.Flags().GetString("cache-dir")
	releaseTag, _ := cmd.Flags().GetString("release-tag")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	newAccountID, _ := cmd.Flags().GetString("new-account-id")
	newAdminKey, _ := cmd.Flags().GetString("new-admin-key")
	tlsCert, _ := cmd.Flags().GetString("tls-cert")
	gossipCert, _ := cmd.Flags().GetString("gossip-cert")
	gossipEndpoints, _ := cmd.Flags().GetString("gossip-endpoints")
	grpcEndpoints, _ := cmd.Flags().GetString("grpc-endpoints")
	endpointType, _ := cmd.Flags().GetString("endpoint-type")
	chartRef, _ := cmd.Flags().GetString("chart-ref")
	chartVersion, _ := cmd.Flags().GetString("chart-version")

	return &config.NodeUpdateConfig{
		Namespace:       namespace,
		NodeAlias:       nodeAlias,
		CacheDir:        cacheDir,
		ReleaseTag:      releaseTag,
		OutputDir:       outputDir,
		Ledger:          ledgerCfg,
		NewAccountID:    newAccountID,
		NewAdminKeyPath: newAdminKey,
		TLSCertPath:     tlsCert,
		GossipCertPath:  gossipCert,
		GossipEndpoints: gossipEndpoints,
		GrpcEndpoints:   grpcEndpoints,
		EndpointType:    types.EndpointType(endpointType),
		ChartRef:        chartRef,
		ChartVersion:    chartVersion,
	}, nil
}

var (
	updatePrepareFields = []string{"Namespace", "NodeAlias", "CacheDir", "ReleaseTag", "OutputDir",
		"NewAccountID", "NewAdminKeyPath", "TLSCertPath", "GossipCertPath",
		"GossipEndpoints", "GrpcEndpoints", "EndpointType"}
	updateSubmitFields  = []string{"Namespace", "OutputDir", "OperatorID", "OperatorKeyPath"}
	updateExecuteFields = []string{"Namespace", "OutputDir", "CacheDir", "ReleaseTag",
		"ChartRef", "ChartVersion", "OperatorID", "OperatorKeyPath"}
)

func runUpdateCommand(cmd *cobra.Command, fields []string, build func(*lifecycle.Engine, *config.NodeUpdateConfig) *task.List) error {
	cfg, err := updateConfigFromFlags(cmd)
	if err != nil {
		return err
	}
	tracked := config.NewTracked(cfg)
	return runCommand(cmd, cfg.Namespace, tracked, func(a *app) *task.List {
		return build(a.engine, tracked.Use(fields...))
	})
}

var nodeUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update an existing consensus node's account, keys, or endpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUpdateCommand(cmd, fieldUnion(updatePrepareFields, updateSubmitFields, updateExecuteFields), (*lifecycle.Engine).UpdateSteps)
	},
}

var nodeUpdatePrepareCmd = &cobra.Command{
	Use:   "update-prepare",
	Short: "Prepare a node update and save the continuation record",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUpdateCommand(cmd, updatePrepareFields, (*lifecycle.Engine).UpdatePrepareSteps)
	},
}

var nodeUpdateSubmitCmd = &cobra.Command{
	Use:   "update-submit-transactions",
	Short: "Submit the node update ledger transactions from a saved record",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUpdateCommand(cmd, updateSubmitFields, (*lifecycle.Engine).UpdateSubmitSteps)
	},
}

var nodeUpdateExecuteCmd = &cobra.Command{
	Use:   "update-execute",
	Short: "Apply a prepared and submitted node update to the cluster",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUpdateCommand(cmd, updateExecuteFields, (*lifecycle.Engine).UpdateExecuteSteps)
	},
}

func addDeleteFlags(c *cobra.Command) {
	c.Flags().StringP("namespace", "n", "", "Kubernetes namespace of the network")
	c.Flags().String("node-alias", "", "Alias of the node to delete")
	c.Flags().String("output-dir", "", "Directory for the continuation record between phases")
	c.Flags().String("chart-ref", networkChartRef, "Network chart reference")
	c.Flags().String("chart-version", "", "Network chart version")
	addOperatorFlags(c)
}

func deleteConfigFromFlags(cmd *cobra.Command) (*config.NodeDeleteConfig, error) {
	ledgerCfg, err := ledgerFromFlags(cmd)
	if err != nil {
		return nil, err
	}

	namespace, _ := cmd.Flags().GetString("namespace")
	nodeAlias, _ := cmd.Flags().GetString("node-alias")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	chartRef, _ := cmd.Flags().GetString("chart-ref")
	chartVersion, _ := cmd.Flags().GetString("chart-version")

	return &config.NodeDeleteConfig{
		Namespace:    namespace,
		NodeAlias:    nodeAlias,
		OutputDir:    outputDir,
		Ledger:       ledgerCfg,
		ChartRef:     chartRef,
		ChartVersion: chartVersion,
	}, nil
}

var (
	deletePrepareFields = []string{"Namespace", "NodeAlias", "OutputDir"}
	deleteSubmitFields  = []string{"Namespace", "OutputDir", "OperatorID", "OperatorKeyPath"}
	deleteExecuteFields = []string{"Namespace", "OutputDir", "ChartRef", "ChartVersion",
		"OperatorID", "OperatorKeyPath"}
)

func runDeleteCommand(cmd *cobra.Command, fields []string, build func(*lifecycle.Engine, *config.NodeDeleteConfig) *task.List) error {
	cfg, err := deleteConfigFromFlags(cmd)
	if err != nil {
		return err
	}
	tracked := config.NewTracked(cfg)
	return runCommand(cmd, cfg.Namespace, tracked, func(a *app) *task.List {
		return build(a.engine, tracked.Use(fields...))
	})
}

var nodeDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove a consensus node from the network",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDeleteCommand(cmd, fieldUnion(deletePrepareFields, deleteSubmitFields, deleteExecuteFields), (*lifecycle.Engine).DeleteSteps)
	},
}

var nodeDeletePrepareCmd = &cobra.Command{
	Use:   "delete-prepare",
	Short: "Prepare a node delete and save the continuation record",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDeleteCommand(cmd, deletePrepareFields, (*lifecycle.Engine).DeletePrepareSteps)
	},
}

var nodeDeleteSubmitCmd = &cobra.Command{
	Use:   "delete-submit-transactions",
	Short: "Submit the node delete ledger transactions from a saved record",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDeleteCommand(cmd, deleteSubmitFields, (*lifecycle.Engine).DeleteSubmitSteps)
	},
}

var nodeDeleteExecuteCmd = &cobra.Command{
	Use:   "delete-execute",
	Short: "Apply a prepared and submitted node delete to the cluster",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDeleteCommand(cmd, deleteExecuteFields, (*lifecycle.Engine).DeleteExecuteSteps)
	},
}

func addUpgradeFlags(c *cobra.Command) {
	c.Flags().StringP("namespace", "n", "", "Kubernetes namespace of the network")
	c.Flags().String("upgrade-file-id", lifecycle.DefaultUpgradeFileID, "System file id holding the upgrade artifact")
	c.Flags().Int("freeze-delay", 60, "Seconds until the scheduled freeze starts")
	addOperatorFlags(c)
}

func upgradeConfigFromFlags(cmd *cobra.Command) (*config.UpgradeConfig, error) {
	ledgerCfg, err := ledgerFromFlags(cmd)
	if err != nil {
		return nil, err
	}

	namespace, _ := cmd.Flags().GetString("namespace")
	fileID, _ := cmd.Flags().GetString("upgrade-file-id")
	freezeDelay, _ := cmd.Flags().GetInt("freeze-delay")

	return &config.UpgradeConfig{
		Namespace:          namespace,
		Ledger:             ledgerCfg,
		UpgradeFileID:      fileID,
		FreezeDelaySeconds: freezeDelay,
	}, nil
}

var nodePrepareUpgradeCmd = &cobra.Command{
	Use:   "prepare-upgrade",
	Short: "Submit a prepare-upgrade transaction for the staged artifact",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := upgradeConfigFromFlags(cmd)
		if err != nil {
			return err
		}
		tracked := config.NewTracked(cfg)
		return runCommand(cmd, cfg.Namespace, tracked, func(a *app) *task.List {
			return a.engine.PrepareUpgradeSteps(tracked.Use("Namespace", "UpgradeFileID", "OperatorID", "OperatorKeyPath"))
		})
	},
}

var nodeFreezeUpgradeCmd = &cobra.Command{
	Use:   "freeze-upgrade",
	Short: "Schedule a network freeze for the staged upgrade",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := upgradeConfigFromFlags(cmd)
		if err != nil {
			return err
		}
		tracked := config.NewTracked(cfg)
		return runCommand(cmd, cfg.Namespace, tracked, func(a *app) *task.List {
			return a.engine.FreezeUpgradeSteps(tracked.Use("Namespace", "UpgradeFileID", "FreezeDelaySeconds", "OperatorID", "OperatorKeyPath"))
		})
	},
}

var nodeDownloadCmd = &cobra.Command{
	Use:   "download-generated-files",
	Short: "Pull generated config and keys from an existing node into the staging directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		namespace, _ := cmd.Flags().GetString("namespace")
		cacheDir, _ := cmd.Flags().GetString("cache-dir")
		releaseTag, _ := cmd.Flags().GetString("release-tag")
		cfg := config.NewTracked(&config.DownloadConfig{
			Namespace:  namespace,
			CacheDir:   cacheDir,
			ReleaseTag: releaseTag,
		})
		return runReadCommand(cmd, namespace, cfg, func(a *app) *task.List {
			resolved := cfg.Use("Namespace", "CacheDir", "ReleaseTag")
			return a.engine.DownloadGeneratedFilesSteps(resolved.Namespace, resolved.StagingDir())
		})
	},
}

func init() {
	addNodeCommonFlags(nodeSetupCmd)
	nodeSetupCmd.Flags().String("local-build-path", "", "Local build directory to copy instead of downloading a release")

	addNodeCommonFlags(nodeStartCmd)
	nodeStartCmd.Flags().String("debug-node-alias", "", "Alias of the one node to open a debug port-forward for")
	nodeStartCmd.Flags().Bool("stake", false, "Point each node account's stake target at its own node after start")
	addOperatorFlags(nodeStartCmd)

	addNodeCommonFlags(nodeStopCmd)

	nodeKeysCmd.Flags().StringP("namespace", "n", "", "Kubernetes namespace of the network")
	nodeKeysCmd.Flags().StringSlice("node-aliases", nil, "Comma-separated node aliases to operate on")
	nodeKeysCmd.Flags().String("keys-dir", defaultKeysDir(), "Directory to write key material into")
	nodeKeysCmd.Flags().Bool("gossip-keys", false, "Generate gossip signing keys")
	nodeKeysCmd.Flags().Bool("tls-keys", false, "Generate TLS keys")

	addNodeCommonFlags(nodeRefreshCmd)
	nodeRefreshCmd.Flags().String("local-build-path", "", "Local build directory to copy instead of downloading a release")

	nodeLogsCmd.Flags().StringP("namespace", "n", "", "Kubernetes namespace of the network")
	nodeLogsCmd.Flags().StringSlice("node-aliases", nil, "Comma-separated node aliases to operate on")
	nodeLogsCmd.Flags().String("output-dir", "", "Local directory to download logs into")

	addAddFlags(nodeAddCmd)
	addAddFlags(nodeAddPrepareCmd)
	addAddFlags(nodeAddSubmitCmd)
	addAddFlags(nodeAddExecuteCmd)

	addUpdateFlags(nodeUpdateCmd)
	addUpdateFlags(nodeUpdatePrepareCmd)
	addUpdateFlags(nodeUpdateSubmitCmd)
	addUpdateFlags(nodeUpdateExecuteCmd)

	addDeleteFlags(nodeDeleteCmd)
	addDeleteFlags(nodeDeletePrepareCmd)
	addDeleteFlags(nodeDeleteSubmitCmd)
	addDeleteFlags(nodeDeleteExecuteCmd)

	addUpgradeFlags(nodePrepareUpgradeCmd)
	addUpgradeFlags(nodeFreezeUpgradeCmd)

	nodeDownloadCmd.Flags().StringP("namespace", "n", "", "Kubernetes namespace of the network")
	nodeDownloadCmd.Flags().String("cache-dir", defaultCacheDir(), "Local cache directory for staged artifacts")
	nodeDownloadCmd.Flags().String("release-tag", "", "Software release tag the staging directory belongs to")
}
