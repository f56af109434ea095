package platform

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/hiveops/hivectl/pkg/cluster"
	"github.com/hiveops/hivectl/pkg/log"
	"github.com/hiveops/hivectl/pkg/poll"
)

const (
	// MetricsPort is the in-pod platform metrics port.
	MetricsPort = 9999
	// ProxyStatusPort is the in-pod envoy/haproxy status port.
	ProxyStatusPort = 9090

	// DefaultSettle compensates for the proxy converging slower than the
	// platform itself after a status change.
	DefaultSettle = 1500 * time.Millisecond
)

// Checker polls node platform status and proxy health through temporary
// port-forwards. Forwards are torn down on every exit path; a leaked
// forward is a correctness bug, not a nuisance.
type Checker struct {
	cluster cluster.Client
	rest    *resty.Client
	// Settle is slept after a successful status wait.
	Settle time.Duration

	logger zerolog.Logger
}

// NewChecker creates a status checker against the given cluster client.
func NewChecker(clusterClient cluster.Client) *Checker {
	return &Checker{
		cluster: clusterClient,
		rest:    resty.New().SetRetryCount(0),
		Settle:  DefaultSettle,
		logger:  log.WithComponent("platform"),
	}
}

// FetchStatus performs one status scrape against a local endpoint.
func (c *Checker) FetchStatus(ctx context.Context, url string) (Status, error) {
	resp, err := c.rest.R().SetContext(ctx).Get(url)
	if err != nil {
		return StatusNoValue, fmt.Errorf("status fetch failed: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return StatusNoValue, fmt.Errorf("status endpoint returned HTTP %d", resp.StatusCode())
	}
	return ParseStatusFromMetrics(resp.String())
}

// WaitForStatus port-forwards to the pod's metrics port and polls until the
// node reports target. CATASTROPHIC_FAILURE aborts immediately regardless
// of the requested target. On success the settle delay is applied before
// returning.
func (c *Checker) WaitForStatus(ctx context.Context, namespace, pod string, localPort int, target Status, cfg poll.Config) error {
	forward, err := c.cluster.PortForwardPod(ctx, namespace, pod, localPort, MetricsPort)
	if err != nil {
		return fmt.Errorf("failed to port-forward to %s/%s: %w", namespace, pod, err)
	}
	defer forward.Close()

	url := fmt.Sprintf("http://127.0.0.1:%d/metrics", forward.LocalPort())

	err = poll.WaitUntil(ctx, cfg, func(ctx context.Context) (poll.Outcome, error) {
		status, err := c.FetchStatus(ctx, url)
		if err != nil {
			return poll.Transient, err
		}
		if status == StatusCatastrophicFailure && target != StatusCatastrophicFailure {
			return poll.Terminal, fmt.Errorf("node reported %s", status)
		}
		if status == target {
			return poll.Done, nil
		}
		return poll.Transient, fmt.Errorf("status is %s", status)
	})
	if err != nil {
		return err
	}

	if c.Settle > 0 {
		c.logger.Debug().
			Str("pod", pod).
			Dur("settle", c.Settle).
			Msg("status reached, settling")
		select {
		case <-time.After(c.Settle):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// WaitForProxy port-forwards to the pod's proxy status port and polls until
// the proxy answers 2xx.
func (c *Checker) WaitForProxy(ctx context.Context, namespace, pod string, localPort int, cfg poll.Config) error {
	forward, err := c.cluster.PortForwardPod(ctx, namespace, pod, localPort, ProxyStatusPort)
	if err != nil {
		return fmt.Errorf("failed to port-forward to %s/%s: %w", namespace, pod, err)
	}
	defer forward.Close()

	url := fmt.Sprintf("http://127.0.0.1:%d/", forward.LocalPort())

	return poll.WaitUntil(ctx, cfg, func(ctx context.Context) (poll.Outcome, error) {
		resp, err := c.rest.R().SetContext(ctx).Get(url)
		if err != nil {
			return poll.Transient, err
		}
		if resp.StatusCode() >= 200 && resp.StatusCode() <= 299 {
			return poll.Done, nil
		}
		return poll.Transient, fmt.Errorf("proxy returned HTTP %d", resp.StatusCode())
	})
}
