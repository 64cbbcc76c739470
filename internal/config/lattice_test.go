package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func unsetenv(t *testing.T, key string) {
	t.Helper()
	// t.Setenv registers restoration of the original value; the explicit
	// unset afterwards gives the "variable absent" case.
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func TestRPCTimeoutFallbacks(t *testing.T) {
	cases := []struct {
		name  string
		set   bool
		value string
		want  time.Duration
	}{
		{name: "unset", want: 500 * time.Millisecond},
		{name: "empty", set: true, value: "", want: 500 * time.Millisecond},
		{name: "unparseable", set: true, value: "abc", want: 500 * time.Millisecond},
		{name: "negative", set: true, value: "-5", want: 500 * time.Millisecond},
		{name: "valid", set: true, value: "250", want: 250 * time.Millisecond},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.set {
				t.Setenv("LATTICE_RPC_TIMEOUT_MILLIS", tc.value)
			} else {
				unsetenv(t, "LATTICE_RPC_TIMEOUT_MILLIS")
			}

			cfg := LoadLattice()
			assert.Equal(t, tc.want, cfg.RPCTimeout)
		})
	}
}

func TestHostFallbacks(t *testing.T) {
	unsetenv(t, "LATTICE_HOST")
	assert.Equal(t, "127.0.0.1", LoadLattice().Host)

	t.Setenv("LATTICE_HOST", "")
	assert.Equal(t, "127.0.0.1", LoadLattice().Host)

	t.Setenv("LATTICE_HOST", "nats.example.com:4222")
	assert.Equal(t, "nats.example.com:4222", LoadLattice().Host)
}

func TestCredsFileSelectsAuthenticatedMode(t *testing.T) {
	unsetenv(t, "LATTICE_CREDS_FILE")
	cfg := LoadLattice()
	assert.True(t, cfg.Anonymous())

	t.Setenv("LATTICE_CREDS_FILE", "/etc/lattice/user.creds")
	cfg = LoadLattice()
	assert.False(t, cfg.Anonymous())
	assert.Equal(t, "/etc/lattice/user.creds", cfg.CredsFile)
}
