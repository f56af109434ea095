package lifecycle

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/hiveops/hivectl/pkg/types"
)

var aliasSuffix = regexp.MustCompile(`^(.*?)(\d+)$`)

// PodName returns the pod an alias runs in.
func PodName(alias string) string {
	return "network-" + alias + "-0"
}

// ServiceName returns the service fronting an alias.
func ServiceName(alias string) string {
	return "network-" + alias + "-svc"
}

// NextAlias increments the trailing decimal suffix of an alias. An alias
// without a suffix gets "1" appended.
func NextAlias(alias string) string {
	m := aliasSuffix.FindStringSubmatch(alias)
	if m == nil {
		return alias + "1"
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return alias + "1"
	}
	return m[1] + strconv.Itoa(n+1)
}

// DeriveNewNode computes the identity of a node about to join: account
// number is one greater than the maximum existing account number, node id
// is one greater than the maximum existing node id, and the alias is the
// last existing alias with its numeric suffix incremented.
//
// The derivation is recomputed from current cluster state on every call,
// never cached: pods may have been recreated since the last look.
func DeriveNewNode(existing []types.NodeIdentity) (types.NodeIdentity, error) {
	if len(existing) == 0 {
		return types.NodeIdentity{}, fmt.Errorf("cannot derive a new node: no existing nodes found")
	}

	var maxAccount, maxNodeID int64
	for _, node := range existing {
		if node.AccountID.Num > maxAccount {
			maxAccount = node.AccountID.Num
		}
		if node.NodeID > maxNodeID {
			maxNodeID = node.NodeID
		}
	}

	alias := NextAlias(existing[len(existing)-1].Alias)
	account := types.AccountID{
		Shard: existing[0].AccountID.Shard,
		Realm: existing[0].AccountID.Realm,
		Num:   maxAccount + 1,
	}

	return types.NodeIdentity{
		Alias:       alias,
		NodeID:      maxNodeID + 1,
		PodName:     PodName(alias),
		ServiceName: ServiceName(alias),
		AccountID:   account,
	}, nil
}
