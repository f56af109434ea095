package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hiveops/hivectl/pkg/chart"
	"github.com/hiveops/hivectl/pkg/cluster"
	"github.com/hiveops/hivectl/pkg/config"
	"github.com/hiveops/hivectl/pkg/lease"
	"github.com/hiveops/hivectl/pkg/ledger"
	"github.com/hiveops/hivectl/pkg/lifecycle"
	"github.com/hiveops/hivectl/pkg/log"
	"github.com/hiveops/hivectl/pkg/metrics"
	"github.com/hiveops/hivectl/pkg/storage"
	"github.com/hiveops/hivectl/pkg/task"
	"github.com/hiveops/hivectl/pkg/types"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.UserError(err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "hivectl",
	Short: "hivectl - test network orchestrator for the hive ledger",
	Long: `hivectl stands up, mutates, and tears down a distributed-ledger test
network on Kubernetes: chart deploys, node key generation, software
staging into pods, and the ledger transactions that add, update, and
remove consensus nodes.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, _ := cmd.Flags().GetString("log-level")
		jsonLog, _ := cmd.Flags().GetBool("json-log")
		log.Init(log.Config{Level: log.Level(level), JSONOutput: jsonLog})

		if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
			go func() {
				if err := metrics.Serve(addr); err != nil {
					log.Logger.Warn().Err(err).Msg("metrics listener stopped")
				}
			}()
		}
	},
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"hivectl version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().Bool("json-log", false, "Emit JSON logs instead of console output")
	rootCmd.PersistentFlags().String("metrics-addr", "", "Serve Prometheus metrics on this address (empty disables)")
	rootCmd.PersistentFlags().String("data-dir", defaultDataDir(), "Directory for local state (flag store, leases, run history)")
	rootCmd.PersistentFlags().String("kubeconfig", "", "Path to kubeconfig (empty uses the default resolution)")
	rootCmd.PersistentFlags().Duration("active-settle", lifecycle.DefaultTiming().ActiveSettle, "Settle delay after a node reports the awaited status")
	rootCmd.PersistentFlags().Duration("stake-settle", lifecycle.DefaultTiming().StakeSettle, "Settle delay before stake recalculation transfers")

	rootCmd.AddCommand(nodeCmd)
	rootCmd.AddCommand(clusterCmd)
	rootCmd.AddCommand(mirrorCmd)
	rootCmd.AddCommand(relayCmd)
	rootCmd.AddCommand(roleCmd)
	rootCmd.AddCommand(historyCmd)
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".hivectl"
	}
	return filepath.Join(home, ".hivectl")
}

// app bundles the wired collaborators behind one command invocation.
type app struct {
	store  storage.Store
	engine *lifecycle.Engine
	ledger ledger.Client
	leases *lease.Manager
}

func newApp(cmd *cobra.Command) (*app, error) {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	kubeconfig, _ := cmd.Flags().GetString("kubeconfig")

	store, err := storage.NewBoltStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open local state: %w", err)
	}

	timing := lifecycle.DefaultTiming()
	if settle, err := cmd.Flags().GetDuration("active-settle"); err == nil {
		timing.ActiveSettle = settle
	}
	if settle, err := cmd.Flags().GetDuration("stake-settle"); err == nil {
		timing.StakeSettle = settle
	}

	ledgerClient := ledger.NewRecording()
	engine := lifecycle.NewEngine(
		cluster.NewKubectl(kubeconfig),
		chart.NewHelm(kubeconfig),
		ledgerClient,
		config.NewFlagStore(store),
		timing,
	)

	return &app{
		store:  store,
		engine: engine,
		ledger: ledgerClient,
		leases: lease.NewManager(dataDir),
	}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		log.Logger.Warn().Err(err).Msg("failed to close local state")
	}
}

// runCommand validates the config, wires the app, takes the namespace
// lease, and executes the built pipeline. Mutating commands go through
// here; read-only ones use runReadCommand. The config arrives wrapped
// for read tracking: the build closure marks the fields its pipeline
// consumes via Use, and fields supplied but never read are reported at
// debug level once the run finishes.
func runCommand[T any](cmd *cobra.Command, namespace string, cfg *config.Tracked[T], build func(*app) *task.List) error {
	return execute(cmd, namespace, cfg, build, true)
}

func runReadCommand[T any](cmd *cobra.Command, namespace string, cfg *config.Tracked[T], build func(*app) *task.List) error {
	return execute(cmd, namespace, cfg, build, false)
}

func execute[T any](cmd *cobra.Command, namespace string, cfg *config.Tracked[T], build func(*app) *task.List, withLease bool) error {
	if err := config.Validate(cfg.Use()); err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	runner := task.NewRunner()
	runner.Defer(a.ledger.Close)

	steps := build(a)
	if withLease {
		l := a.leases.New(namespace)
		runner.Defer(l.Release)
		steps = task.NewList(l.AcquireTask()).Append(steps.Tasks...)
	}

	run := task.NewContext(cfg.Use())
	runner.Defer(func() error {
		if forward, ok := lifecycle.DebugForwardFrom(run); ok {
			return forward.Close()
		}
		return nil
	})

	rec := &types.RunRecord{
		ID:        uuid.NewString(),
		Command:   cmd.CommandPath(),
		Namespace: namespace,
		StartedAt: time.Now().UTC().Format(time.RFC3339),
	}

	runErr := runner.Run(cmd.Context(), steps, run)

	rec.EndedAt = time.Now().UTC().Format(time.RFC3339)
	if runErr != nil {
		rec.Error = runErr.Error()
	}
	if err := a.store.SaveRun(rec); err != nil {
		log.Logger.Warn().Err(err).Msg("failed to record run history")
	}

	if unused := cfg.UnusedFields(); len(unused) > 0 {
		log.Logger.Debug().Strs("fields", unused).Msg("config fields supplied but never read")
	}

	return runErr
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent command runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		runs, err := a.store.ListRuns()
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}

		for _, rec := range runs {
			outcome := "ok"
			if rec.Error != "" {
				outcome = "failed: " + rec.Error
			}
			fmt.Printf("%s  %-30s  %-12s  %s\n", rec.StartedAt, rec.Command, rec.Namespace, outcome)
		}
		return nil
	},
}
