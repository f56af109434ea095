package types

import (
	"fmt"
	"strconv"
	"strings"
)

// AccountID identifies a ledger account in shard.realm.num form.
type AccountID struct {
	Shard int64 `json:"shard"`
	Realm int64 `json:"realm"`
	Num   int64 `json:"num"`
}

// ParseAccountID parses an account id string such as "0.0.3".
func ParseAccountID(s string) (AccountID, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return AccountID{}, fmt.Errorf("invalid account id %q: expected shard.realm.num", s)
	}

	nums := make([]int64, 3)
	for i, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return AccountID{}, fmt.Errorf("invalid account id %q: %w", s, err)
		}
		if n < 0 {
			return AccountID{}, fmt.Errorf("invalid account id %q: negative component", s)
		}
		nums[i] = n
	}

	return AccountID{Shard: nums[0], Realm: nums[1], Num: nums[2]}, nil
}

// String returns the shard.realm.num representation.
func (a AccountID) String() string {
	return fmt.Sprintf("%d.%d.%d", a.Shard, a.Realm, a.Num)
}

// IsZero reports whether the account id is unset.
func (a AccountID) IsZero() bool {
	return a.Shard == 0 && a.Realm == 0 && a.Num == 0
}

// Endpoint is a host:port pair for a node service.
type Endpoint struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// String returns the host:port representation.
func (e Endpoint) String() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

// EndpointType selects how endpoints are synthesized when none are supplied.
type EndpointType string

const (
	EndpointTypeFQDN EndpointType = "FQDN"
	EndpointTypeIP   EndpointType = "IP"
)

// NodeIdentity maps a stable user-facing alias to everything the
// orchestrator needs to address one consensus node.
type NodeIdentity struct {
	Alias           string     `json:"alias"`
	NodeID          int64      `json:"node_id"`
	PodName         string     `json:"pod_name"`
	ServiceName     string     `json:"service_name"`
	AccountID       AccountID  `json:"account_id"`
	GossipEndpoints []Endpoint `json:"gossip_endpoints,omitempty"`
	GrpcEndpoints   []Endpoint `json:"grpc_endpoints,omitempty"`
}

// RunRecord captures the outcome of one command invocation for local history.
type RunRecord struct {
	ID        string `json:"id"`
	Command   string `json:"command"`
	Namespace string `json:"namespace"`
	StartedAt string `json:"started_at"`
	EndedAt   string `json:"ended_at"`
	Error     string `json:"error,omitempty"`
}
