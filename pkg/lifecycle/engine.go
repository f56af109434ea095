package lifecycle

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/hiveops/hivectl/pkg/chart"
	"github.com/hiveops/hivectl/pkg/cluster"
	"github.com/hiveops/hivectl/pkg/config"
	"github.com/hiveops/hivectl/pkg/ledger"
	"github.com/hiveops/hivectl/pkg/log"
	"github.com/hiveops/hivectl/pkg/platform"
	"github.com/hiveops/hivectl/pkg/poll"
)

// Remote filesystem layout inside a network-node pod.
const (
	nodeContainer = "root-container"

	remoteAppDir    = "/opt/hivenode"
	remoteSavedDir  = remoteAppDir + "/data/saved"
	remoteKeysDir   = remoteAppDir + "/data/keys"
	remoteConfigDir = remoteAppDir + "/data/config"
	remoteLogsDir   = remoteAppDir + "/output"
	nodeCtl         = remoteAppDir + "/bin/node-ctl"
	installScript   = remoteAppDir + "/bin/install.sh"
)

// Local port bases for temporary port-forwards. Offset by node id so
// concurrent waits never collide on a local port.
const (
	metricsPortBase = 19000
	proxyPortBase   = 29000
	DebugPort       = 5005
)

// Context keys written by earlier tasks and read by later ones.
const (
	keyNodes         = "nodes"
	keyNewNode       = "new-node"
	keyAddContext    = "add-context"
	keyUpdateContext = "update-context"
	keyDeleteContext = "delete-context"
	keyDebugForward  = "debug-forward"
)

// Timing bundles the empirically-tuned delays and budgets. The settle
// values compensate for specific consensus-network behavior and are not
// guaranteed optimal, so they stay configurable.
type Timing struct {
	// ActiveSettle is slept after a node reports the awaited status.
	ActiveSettle time.Duration
	// StakeSettle is slept before stake recalculation transfers.
	StakeSettle time.Duration

	ActivenessAttempts int
	PodAttempts        int
	Delay              time.Duration
	AttemptTimeout     time.Duration
}

// DefaultTiming returns the stock budgets.
func DefaultTiming() Timing {
	return Timing{
		ActiveSettle:       platform.DefaultSettle,
		StakeSettle:        60 * time.Second,
		ActivenessAttempts: 120,
		PodAttempts:        300,
		Delay:              time.Second,
		AttemptTimeout:     time.Second,
	}
}

func (t Timing) activenessConfig(entity string, target platform.Status) poll.Config {
	return poll.Config{
		Entity:         entity,
		Target:         target.String(),
		MaxAttempts:    t.ActivenessAttempts,
		Delay:          t.Delay,
		AttemptTimeout: t.AttemptTimeout,
	}
}

func (t Timing) podConfig(entity, target string) poll.Config {
	return poll.Config{
		Entity:         entity,
		Target:         target,
		MaxAttempts:    t.PodAttempts,
		Delay:          t.Delay,
		AttemptTimeout: t.AttemptTimeout,
	}
}

// Engine builds the task graphs for every node-lifecycle operation. It
// sequences calls against the cluster, chart, and ledger collaborators but
// never reimplements their behavior.
type Engine struct {
	Cluster cluster.Client
	Charts  chart.Manager
	Ledger  ledger.Client
	Checker *platform.Checker
	Flags   *config.FlagStore
	Timing  Timing

	logger zerolog.Logger
}

// NewEngine wires an engine from its collaborators.
func NewEngine(clusterClient cluster.Client, charts chart.Manager, ledgerClient ledger.Client, flags *config.FlagStore, timing Timing) *Engine {
	checker := platform.NewChecker(clusterClient)
	checker.Settle = timing.ActiveSettle
	return &Engine{
		Cluster: clusterClient,
		Charts:  charts,
		Ledger:  ledgerClient,
		Checker: checker,
		Flags:   flags,
		Timing:  timing,
		logger:  log.WithComponent("lifecycle"),
	}
}
