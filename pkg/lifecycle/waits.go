package lifecycle

import (
	"context"
	"fmt"

	"github.com/hiveops/hivectl/pkg/platform"
	"github.com/hiveops/hivectl/pkg/poll"
	"github.com/hiveops/hivectl/pkg/types"
)

// CheckNamespace verifies the target namespace exists. A missing namespace
// is a configuration error, not something to wait on.
func (e *Engine) CheckNamespace(ctx context.Context, namespace string) error {
	exists, err := e.Cluster.NamespaceExists(ctx, namespace)
	if err != nil {
		return fmt.Errorf("failed to check namespace %s: %w", namespace, err)
	}
	if !exists {
		return fmt.Errorf("namespace %s does not exist", namespace)
	}
	return nil
}

// WaitPodsRunning polls until expected pods matching the selector report
// phase Running.
func (e *Engine) WaitPodsRunning(ctx context.Context, namespace, selector string, expected int) error {
	cfg := e.Timing.podConfig(fmt.Sprintf("pods %q in %s", selector, namespace), "Running")
	return poll.WaitUntil(ctx, cfg, func(ctx context.Context) (poll.Outcome, error) {
		pods, err := e.Cluster.ListPods(ctx, namespace, selector)
		if err != nil {
			return poll.Transient, err
		}
		running := 0
		for _, pod := range pods {
			if pod.Phase == "Running" {
				running++
			}
		}
		if running >= expected {
			return poll.Done, nil
		}
		return poll.Transient, fmt.Errorf("%d/%d pods running", running, expected)
	})
}

// WaitPodsReady polls until expected pods matching the selector report the
// readiness condition true.
func (e *Engine) WaitPodsReady(ctx context.Context, namespace, selector string, expected int) error {
	cfg := e.Timing.podConfig(fmt.Sprintf("pods %q in %s", selector, namespace), "Ready")
	return poll.WaitUntil(ctx, cfg, func(ctx context.Context) (poll.Outcome, error) {
		pods, err := e.Cluster.ListPods(ctx, namespace, selector)
		if err != nil {
			return poll.Transient, err
		}
		ready := 0
		for _, pod := range pods {
			if pod.Ready {
				ready++
			}
		}
		if ready >= expected {
			return poll.Done, nil
		}
		return poll.Transient, fmt.Errorf("%d/%d pods ready", ready, expected)
	})
}

// waitNodeStatus waits for one node to report the target platform status
// over a temporary metrics port-forward.
func (e *Engine) waitNodeStatus(ctx context.Context, namespace string, node types.NodeIdentity, target platform.Status) error {
	cfg := e.Timing.activenessConfig("node "+node.Alias, target)
	localPort := metricsPortBase + int(node.NodeID)
	return e.Checker.WaitForStatus(ctx, namespace, node.PodName, localPort, target, cfg)
}

// waitNodeProxy waits for one node's proxy to answer its status port.
func (e *Engine) waitNodeProxy(ctx context.Context, namespace string, node types.NodeIdentity) error {
	cfg := poll.Config{
		Entity:         "proxy " + node.Alias,
		Target:         "healthy",
		MaxAttempts:    e.Timing.ActivenessAttempts,
		Delay:          e.Timing.Delay,
		AttemptTimeout: e.Timing.AttemptTimeout,
	}
	localPort := proxyPortBase + int(node.NodeID)
	return e.Checker.WaitForProxy(ctx, namespace, proxyPodName(node.Alias), localPort, cfg)
}

func proxyPodName(alias string) string {
	return "envoy-proxy-" + alias + "-0"
}
