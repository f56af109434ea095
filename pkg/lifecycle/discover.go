package lifecycle

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/hiveops/hivectl/pkg/types"
)

// Labels the network chart stamps onto node pods.
const (
	networkNodeSelector = "app=network-node"
	labelAlias          = "hivectl.io/node-alias"
	labelAccountID      = "hivectl.io/account-id"
	labelNodeID         = "hivectl.io/node-id"
)

// DiscoverNodes rebuilds the alias-to-identity mapping from current pod
// labels, sorted by node id. The mapping is never cached across steps that
// may recreate pods.
func (e *Engine) DiscoverNodes(ctx context.Context, namespace string) ([]types.NodeIdentity, error) {
	pods, err := e.Cluster.ListPods(ctx, namespace, networkNodeSelector)
	if err != nil {
		return nil, fmt.Errorf("failed to list network pods in %s: %w", namespace, err)
	}

	var nodes []types.NodeIdentity
	for _, pod := range pods {
		alias := pod.Labels[labelAlias]
		if alias == "" {
			return nil, fmt.Errorf("pod %s is missing the %s label", pod.Name, labelAlias)
		}
		account, err := types.ParseAccountID(pod.Labels[labelAccountID])
		if err != nil {
			return nil, fmt.Errorf("pod %s: %w", pod.Name, err)
		}
		nodeID, err := strconv.ParseInt(pod.Labels[labelNodeID], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("pod %s has a malformed %s label: %w", pod.Name, labelNodeID, err)
		}
		nodes = append(nodes, types.NodeIdentity{
			Alias:       alias,
			NodeID:      nodeID,
			PodName:     pod.Name,
			ServiceName: ServiceName(alias),
			AccountID:   account,
		})
	}

	sort.Slice(nodes, func(i, j int) bool { return nodes[i].NodeID < nodes[j].NodeID })
	return nodes, nil
}

// filterNodes keeps the identities whose alias appears in aliases. Every
// requested alias must exist.
func filterNodes(nodes []types.NodeIdentity, aliases []string) ([]types.NodeIdentity, error) {
	byAlias := make(map[string]types.NodeIdentity, len(nodes))
	for _, node := range nodes {
		byAlias[node.Alias] = node
	}

	selected := make([]types.NodeIdentity, 0, len(aliases))
	for _, alias := range aliases {
		node, ok := byAlias[alias]
		if !ok {
			return nil, fmt.Errorf("node alias %q not found in the network", alias)
		}
		selected = append(selected, node)
	}
	return selected, nil
}

func findNode(nodes []types.NodeIdentity, alias string) (types.NodeIdentity, error) {
	for _, node := range nodes {
		if node.Alias == alias {
			return node, nil
		}
	}
	return types.NodeIdentity{}, fmt.Errorf("node alias %q not found in the network", alias)
}
