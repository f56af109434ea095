package lifecycle

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hiveops/hivectl/pkg/types"
)

// Fixed service ports.
const (
	GossipPort = 50111
	GrpcPort   = 50211
)

// EndpointKind selects the default port and the synthesized endpoint shape.
type EndpointKind int

const (
	GossipEndpoints EndpointKind = iota
	GrpcEndpoints
)

func (k EndpointKind) defaultPort() int {
	if k == GrpcEndpoints {
		return GrpcPort
	}
	return GossipPort
}

func (k EndpointKind) String() string {
	if k == GrpcEndpoints {
		return "grpc"
	}
	return "gossip"
}

// ResolveEndpoints turns the user-supplied endpoint flag value into
// concrete endpoints. Explicit entries are comma-separated host:port pairs
// with the port optional. With no explicit entries, FQDN synthesizes
// in-cluster DNS names from namespace and alias; IP is a fatal
// configuration error because addresses cannot be derived.
func ResolveEndpoints(kind EndpointKind, explicit string, endpointType types.EndpointType, namespace, alias string) ([]types.Endpoint, error) {
	if explicit != "" {
		return parseEndpoints(kind, explicit)
	}

	switch endpointType {
	case types.EndpointTypeFQDN:
		return synthesizeFQDN(kind, namespace, alias), nil
	case types.EndpointTypeIP:
		return nil, fmt.Errorf("endpoint type IP requires explicit %s endpoints (host:port,...)", kind)
	default:
		return nil, fmt.Errorf("unknown endpoint type %q", endpointType)
	}
}

func parseEndpoints(kind EndpointKind, explicit string) ([]types.Endpoint, error) {
	var endpoints []types.Endpoint
	for _, entry := range strings.Split(explicit, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		switch len(parts) {
		case 1:
			endpoints = append(endpoints, types.Endpoint{Host: parts[0], Port: kind.defaultPort()})
		case 2:
			port, err := strconv.Atoi(parts[1])
			if err != nil {
				return nil, fmt.Errorf("invalid %s endpoint %q: port must be numeric", kind, entry)
			}
			endpoints = append(endpoints, types.Endpoint{Host: parts[0], Port: port})
		default:
			return nil, fmt.Errorf("invalid %s endpoint %q: expected host or host:port", kind, entry)
		}
	}
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("no usable %s endpoints in %q", kind, explicit)
	}
	return endpoints, nil
}

// synthesizeFQDN builds the deterministic in-cluster names: gossip gets a
// pod DNS name (internal) plus a service DNS name (external), grpc gets
// the service DNS name only.
func synthesizeFQDN(kind EndpointKind, namespace, alias string) []types.Endpoint {
	podDNS := fmt.Sprintf("%s.%s.svc.cluster.local", PodName(alias), namespace)
	svcDNS := fmt.Sprintf("%s.%s.svc.cluster.local", ServiceName(alias), namespace)

	if kind == GrpcEndpoints {
		return []types.Endpoint{{Host: svcDNS, Port: GrpcPort}}
	}
	return []types.Endpoint{
		{Host: podDNS, Port: GossipPort},
		{Host: svcDNS, Port: GossipPort},
	}
}
