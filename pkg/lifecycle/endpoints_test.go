package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiveops/hivectl/pkg/types"
)

func TestResolveExplicitEndpoints(t *testing.T) {
	tests := []struct {
		name     string
		kind     EndpointKind
		explicit string
		want     []types.Endpoint
		wantErr  bool
	}{
		{
			name:     "host and port",
			kind:     GossipEndpoints,
			explicit: "host:1234",
			want:     []types.Endpoint{{Host: "host", Port: 1234}},
		},
		{
			name:     "host only falls back to gossip default",
			kind:     GossipEndpoints,
			explicit: "host",
			want:     []types.Endpoint{{Host: "host", Port: 50111}},
		},
		{
			name:     "host only falls back to grpc default",
			kind:     GrpcEndpoints,
			explicit: "host",
			want:     []types.Endpoint{{Host: "host", Port: 50211}},
		},
		{
			name:     "multiple entries",
			kind:     GossipEndpoints,
			explicit: "a:1,b",
			want: []types.Endpoint{
				{Host: "a", Port: 1},
				{Host: "b", Port: 50111},
			},
		},
		{
			name:     "too many colon parts",
			kind:     GossipEndpoints,
			explicit: "a:1:2",
			wantErr:  true,
		},
		{
			name:     "non-numeric port",
			kind:     GossipEndpoints,
			explicit: "a:x",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveEndpoints(tt.kind, tt.explicit, types.EndpointTypeFQDN, "solo", "node1")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSynthesizeGossipFQDN(t *testing.T) {
	got, err := ResolveEndpoints(GossipEndpoints, "", types.EndpointTypeFQDN, "solo", "node2")
	require.NoError(t, err)

	// Exactly two endpoints: pod DNS (internal) then service DNS (external).
	require.Len(t, got, 2)
	assert.Equal(t, types.Endpoint{Host: "network-node2-0.solo.svc.cluster.local", Port: 50111}, got[0])
	assert.Equal(t, types.Endpoint{Host: "network-node2-svc.solo.svc.cluster.local", Port: 50111}, got[1])
}

func TestSynthesizeGrpcFQDN(t *testing.T) {
	got, err := ResolveEndpoints(GrpcEndpoints, "", types.EndpointTypeFQDN, "solo", "node2")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, types.Endpoint{Host: "network-node2-svc.solo.svc.cluster.local", Port: 50211}, got[0])
}

func TestIPTypeRequiresExplicitEndpoints(t *testing.T) {
	_, err := ResolveEndpoints(GossipEndpoints, "", types.EndpointTypeIP, "solo", "node2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "explicit")

	// Explicit endpoints with type IP are fine.
	got, err := ResolveEndpoints(GossipEndpoints, "10.0.0.1:50111", types.EndpointTypeIP, "solo", "node2")
	require.NoError(t, err)
	assert.Equal(t, []types.Endpoint{{Host: "10.0.0.1", Port: 50111}}, got)
}
