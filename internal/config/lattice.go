package config

import (
	"strconv"
	"time"

	"github.com/spf13/viper"
)

const (
	latticeHostKey       = "LATTICE_HOST"
	latticeRPCTimeoutKey = "LATTICE_RPC_TIMEOUT_MILLIS"
	latticeCredsFileKey  = "LATTICE_CREDS_FILE"

	// DefaultLatticeHost is loopback: the anonymous, single-machine mode.
	DefaultLatticeHost = "127.0.0.1"

	// DefaultRPCTimeoutMillis bounds every request/reply on the bus.
	DefaultRPCTimeoutMillis = 500
)

// Lattice holds the bus connection settings resolved from the environment.
// Resolution happens once at bus construction; later environment changes are
// not observed.
type Lattice struct {
	Host       string
	RPCTimeout time.Duration
	CredsFile  string
}

// LoadLattice resolves the lattice environment variables. Missing or empty
// values select defaults, and an unparseable timeout falls back silently:
// configuration can degrade the deadline, never startup.
func LoadLattice() Lattice {
	v := viper.New()
	v.AutomaticEnv()

	host := v.GetString(latticeHostKey)
	if host == "" {
		host = DefaultLatticeHost
	}

	timeout := time.Duration(DefaultRPCTimeoutMillis) * time.Millisecond
	if raw := v.GetString(latticeRPCTimeoutKey); raw != "" {
		if ms, err := strconv.ParseUint(raw, 10, 32); err == nil {
			timeout = time.Duration(ms) * time.Millisecond
		}
	}

	return Lattice{
		Host:       host,
		RPCTimeout: timeout,
		CredsFile:  v.GetString(latticeCredsFileKey),
	}
}

// Anonymous reports whether the connection should authenticate with a
// credentials file or connect unauthenticated.
func (c Lattice) Anonymous() bool { return c.CredsFile == "" }
