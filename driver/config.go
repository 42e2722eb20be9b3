// Package driver is the top-level orchestrator (C7): it owns the single
// engine.Party for a computation, exchanges and checks configuration
// with the peer, feeds per-party inputs into a builder.Builder, and
// prints run statistics — the ABYConfig/run_as_client/run_setup_phase
// surface spec §4.7 describes, grounded on kernel.Kernel/Process's
// connection-then-run shape.
package driver

import (
	"os"
	"strconv"

	"github.com/markkurossi/mpc/env"

	"github.com/markkurossi/sepilinker/engine"
)

// Role is which side of the protocol this process plays.
type Role int

// Roles.
const (
	Server Role = iota
	Client
)

func (r Role) String() string {
	if r == Client {
		return "client"
	}
	return "server"
}

// EngineRole maps the protocol-level Role onto engine.Party's
// Garbler/Evaluator role: the server (database holder) garbles, the
// client evaluates, an arbitrary but fixed convention both sides must
// agree on.
func (r Role) EngineRole() engine.Role {
	if r == Client {
		return engine.Evaluator
	}
	return engine.Garbler
}

// Config is the ABYConfig equivalent (spec §4.7): role, peer address,
// and thread count, with DefaultPort overridable by the SEPILINKER_PORT
// environment variable the same way env.Config lets kernel.Kernel read
// ABY_PORT_RANGE-style overrides.
type Config struct {
	Role       Role
	RemoteHost string
	Port       string
	NThreads   int
	Bitlen     int

	// CircuitDir is where the prebuilt <bitsize>_<dice_prec>.circ
	// dividers live; both parties must have byte-identical copies
	// (spec §6).
	CircuitDir string

	// env is read for port-range overrides the way kernel.New() seeds
	// Params.MPCConfig from the environment; unused by this package
	// beyond proving the dependency is wired, since this core has no
	// port-pool allocator of its own.
	env *env.Config
}

// DefaultPort is used when neither Config.Port nor SEPILINKER_PORT is set.
const DefaultPort = ":9431"

// NewConfig builds a Config, applying the SEPILINKER_PORT environment
// override if present and Port is otherwise empty.
func NewConfig(role Role, remoteHost string, nthreads, bitlen int) *Config {
	port := os.Getenv("SEPILINKER_PORT")
	if port == "" {
		port = DefaultPort
	} else if _, err := strconv.Atoi(port); err == nil {
		port = ":" + port
	}
	if nthreads <= 0 {
		nthreads = 1
	}
	return &Config{
		Role:       role,
		RemoteHost: remoteHost,
		Port:       port,
		NThreads:   nthreads,
		Bitlen:     bitlen,
		env:        &env.Config{},
	}
}
