package lifecycle

import (
	"fmt"

	"github.com/hiveops/hivectl/pkg/chart"
	"github.com/hiveops/hivectl/pkg/types"
)

// NetworkRelease is the deployment chart release name.
const NetworkRelease = "network"

// networkValues renders the chart values describing the node set. The
// values file is written to disk and handed to the chart manager so the
// deployed configuration stays inspectable after the fact.
func networkValues(nodes []types.NodeIdentity) chart.Values {
	values := chart.Values{}
	values.Set("network.nodeCount", len(nodes))
	for i, node := range nodes {
		prefix := fmt.Sprintf("network.nodes.n%d", i)
		values.Set(prefix+".alias", node.Alias)
		values.Set(prefix+".nodeId", node.NodeID)
		values.Set(prefix+".accountId", node.AccountID.String())
	}
	return values
}

// writeNetworkValues renders and writes the values file for a node set.
func writeNetworkValues(dir string, nodes []types.NodeIdentity) (string, error) {
	return chart.WriteValuesFile(dir, "network-values.yaml", networkValues(nodes))
}
