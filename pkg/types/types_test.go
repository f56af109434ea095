package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAccountID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    AccountID
		wantErr bool
	}{
		{
			name:  "treasury account",
			input: "0.0.2",
			want:  AccountID{Shard: 0, Realm: 0, Num: 2},
		},
		{
			name:  "first node account",
			input: "0.0.3",
			want:  AccountID{Shard: 0, Realm: 0, Num: 3},
		},
		{
			name:  "non-zero shard and realm",
			input: "1.2.3",
			want:  AccountID{Shard: 1, Realm: 2, Num: 3},
		},
		{
			name:    "missing component",
			input:   "0.3",
			wantErr: true,
		},
		{
			name:    "extra component",
			input:   "0.0.3.4",
			wantErr: true,
		},
		{
			name:    "non-numeric",
			input:   "0.0.abc",
			wantErr: true,
		},
		{
			name:    "negative component",
			input:   "0.0.-3",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAccountID(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAccountIDRoundTrip(t *testing.T) {
	id := AccountID{Shard: 0, Realm: 0, Num: 42}
	parsed, err := ParseAccountID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestEndpointString(t *testing.T) {
	ep := Endpoint{Host: "node1.solo.svc.cluster.local", Port: 50211}
	assert.Equal(t, "node1.solo.svc.cluster.local:50211", ep.String())
}
