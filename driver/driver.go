package driver

import (
	"crypto/rand"
	"io"
	"log"
	"net"

	"github.com/markkurossi/mpc/ot"
	"github.com/markkurossi/mpc/p2p"

	"github.com/markkurossi/sepilinker/builder"
	"github.com/markkurossi/sepilinker/config"
	"github.com/markkurossi/sepilinker/engine"
	"github.com/markkurossi/sepilinker/epilinkio"
	"github.com/markkurossi/sepilinker/seerr"
	"github.com/markkurossi/sepilinker/share"
)

// Driver owns the single engine.Party for one computation (spec §5's "a
// single party object per process"): not safe for concurrent use, and
// Reset clears all cached builder/epilinkio/engine state, mirroring
// kernel.Process's one-process-per-party model.
//
// Driver is generic over ShareT, the multiplication space spec §4.5.4
// requires the builder to be polymorphic over (*share.BoolShare when
// CircuitConfig.UseConversion is false, *share.ArithShare when true).
// The two concrete instantiations are built by NewBool/NewArith; New
// picks between them based on cc.UseConversion and returns the LinkageRunner
// interface both satisfy, so callers that don't care which multiplication
// space is in use (cmd/sepilinker, tests exercising both) don't have to
// spell out the type parameter themselves.
type Driver[ShareT any] struct {
	cfg *Config
	cc  *config.CircuitConfig

	conn   *p2p.Conn
	party  *engine.Party
	boolCC *share.Circuit

	dividers map[int]*engine.Divider

	databaseSize int
	consts       *epilinkio.Constants[ShareT]
	b            *builder.Builder[ShareT]

	opsCtor    func(circ *share.Circuit, bitlen int) builder.Ops[ShareT]
	toMultCtor func(circ *share.Circuit) epilinkio.ToMult[ShareT]

	stats Stats
}

// Stats is the last run's gate-count audit, the same counters
// builder.Stats tracks.
type Stats = builder.Stats

// LinkageRunner is the role-agnostic, multiplication-space-agnostic
// surface cmd/sepilinker and driver-level tests drive: every
// Driver[ShareT] instantiation satisfies it.
type LinkageRunner interface {
	Connect() error
	RunSetupPhase() error
	RunAsClient(r epilinkio.Record, databaseSize int, debug bool) (*LinkageResult, error)
	RunAsServer(db epilinkio.Database, debug bool) (*LinkageResult, error)
	RunCount(r epilinkio.Record, db epilinkio.Database, databaseSize int) (*builder.CountResult, error)
	PrintStats(w io.Writer) error
}

// New builds a Driver for the given protocol config and circuit
// configuration, selecting the Boolean or arithmetic multiplication space
// per cc.UseConversion (spec §4.5.4). The connection is established
// separately by Connect.
func New(cfg *Config, cc *config.CircuitConfig) LinkageRunner {
	if cc.UseConversion {
		return NewArith(cfg, cc)
	}
	return NewBool(cfg, cc)
}

// NewBool builds a Driver whose builder multiplies directly in Boolean
// space (builder.BoolOps): every inter-sharing conversion is the
// identity.
func NewBool(cfg *Config, cc *config.CircuitConfig) *Driver[*share.BoolShare] {
	return newDriver[*share.BoolShare](cfg, cc,
		func(circ *share.Circuit, bitlen int) builder.Ops[*share.BoolShare] {
			return builder.BoolOps(circ, bitlen)
		},
		func(circ *share.Circuit) epilinkio.ToMult[*share.BoolShare] {
			return func(b *share.BoolShare) (*share.BoolShare, error) { return b, nil }
		},
	)
}

// NewArith builds a Driver whose builder multiplies in arithmetic space
// (builder.ArithOps), converting to/from Boolean via share.A2B/share.B2A
// at the field boundaries (spec §4.5.4). The arithmetic and Boolean
// circuits share the same underlying engine.Party/connection — only the
// share type layered on top differs, so no second circuit needs dialing.
func NewArith(cfg *Config, cc *config.CircuitConfig) *Driver[*share.ArithShare] {
	return newDriver[*share.ArithShare](cfg, cc,
		func(circ *share.Circuit, bitlen int) builder.Ops[*share.ArithShare] {
			return builder.ArithOps(circ, circ, bitlen)
		},
		func(circ *share.Circuit) epilinkio.ToMult[*share.ArithShare] {
			return func(b *share.BoolShare) (*share.ArithShare, error) { return share.B2A(circ, b) }
		},
	)
}

func newDriver[ShareT any](cfg *Config, cc *config.CircuitConfig,
	opsCtor func(circ *share.Circuit, bitlen int) builder.Ops[ShareT],
	toMultCtor func(circ *share.Circuit) epilinkio.ToMult[ShareT],
) *Driver[ShareT] {
	return &Driver[ShareT]{
		cfg:        cfg,
		cc:         cc,
		dividers:   make(map[int]*engine.Divider),
		opsCtor:    opsCtor,
		toMultCtor: toMultCtor,
	}
}

// Connect runs the base OT phase (spec §4.7's connect()): the client
// dials out, the server listens and accepts one connection, exactly as
// cmd/ephemelier's garblerMode/evaluatorMode do it.
func (d *Driver[ShareT]) Connect() error {
	conn, err := d.dial()
	if err != nil {
		return seerr.Protocolf("driver.connect", "%v", err)
	}
	d.conn = conn

	party, err := engine.NewParty(conn, ot.NewCO(rand.Reader), d.cfg.Role.EngineRole(), d.cfg.Bitlen)
	if err != nil {
		return seerr.New(seerr.Protocol, "driver.connect", err)
	}
	d.party = party
	d.boolCC = share.NewCircuit(share.KindGMW, party)
	return nil
}

func (d *Driver[ShareT]) dial() (*p2p.Conn, error) {
	if d.cfg.Role == Client {
		log.Printf("connecting to %s%s", d.cfg.RemoteHost, d.cfg.Port)
		c, err := net.Dial("tcp", d.cfg.RemoteHost+d.cfg.Port)
		if err != nil {
			return nil, err
		}
		return p2p.NewConn(c), nil
	}

	log.Printf("listening on %s", d.cfg.Port)
	listener, err := net.Listen("tcp", d.cfg.Port)
	if err != nil {
		return nil, err
	}
	defer listener.Close()
	c, err := listener.Accept()
	if err != nil {
		return nil, err
	}
	log.Printf("peer connected from %s", c.RemoteAddr())
	return p2p.NewConn(c), nil
}

// dividerLookup resolves and caches the prebuilt divider sub-circuit for
// a DICE field's bitsize, reading "<bitsize>_<dice_prec>.circ" (see
// engine.DividerFilename) from Config.CircuitDir, which both parties
// must have (spec §6).
func (d *Driver[ShareT]) dividerLookup(bitsize int) (*engine.Divider, error) {
	if div, ok := d.dividers[bitsize]; ok {
		return div, nil
	}
	div, err := engine.LoadDivider(d.cfg.CircuitDir, bitsize, d.cc.DicePrec)
	if err != nil {
		return nil, seerr.New(seerr.Framework, "driver.dividerlookup", err)
	}
	d.dividers[bitsize] = div
	return div, nil
}

// RunSetupPhase runs sharing-independent precomputation: warming the
// divider cache for every configured DICE field's bitsize, so the
// online phase never blocks on a cold file load. The only state it
// requires is a connected party (Connect must have been called); spec
// §4.5.5's BUILT-state rule is not enforced, since this engine has no
// separate setup/online network phase to gate on.
func (d *Driver[ShareT]) RunSetupPhase() error {
	if d.party == nil {
		return seerr.Statef("driver.runsetupphase", "connect() was not called")
	}
	for _, spec := range d.cc.Epilink.Fields {
		if spec.Comparator != config.Dice {
			continue
		}
		if _, err := d.dividerLookup(spec.Bitsize); err != nil {
			return err
		}
	}
	return nil
}

// ensure rebuilds the constant cache and a fresh builder whenever the
// database size changes (the Weight/threshold constants and the argmax
// ConstIdx target are all broadcast to databaseSize lanes). The ops
// built here are whichever multiplication space this Driver was
// constructed for (NewBool/NewArith), wiring CircuitConfig.UseConversion
// through to the actual circuit built, per spec §4.5.4.
func (d *Driver[ShareT]) ensure(databaseSize int) {
	if d.b != nil && d.databaseSize == databaseSize {
		d.b.Reset()
		return
	}
	d.databaseSize = databaseSize
	ops := d.opsCtor(d.boolCC, d.cc.Bitlen)
	d.consts = epilinkio.NewConstants(d.boolCC, d.cc, databaseSize, ops.MakeConst)
	d.b = builder.NewBuilder(ops, d.boolCC, d.cc, d.consts, d.dividerLookup)
}

// shapeInputs builds the client/server EntryShare maps for one run: the
// owning side's real data via epilinkio.ShapeOwn, the other side's
// zero-filled counterpart via epilinkio.ShapeDummy, per spec §4.4's
// "dummy gate of the same shape". toMultCtor supplies the identity (bool
// builder) or share.B2A (arithmetic builder) conversion for the per-field
// delta share, per spec §4.5.4.
func (d *Driver[ShareT]) shapeInputs(databaseSize int, record epilinkio.Record, db epilinkio.Database) (client, server map[string]*epilinkio.EntryShare[ShareT], err error) {
	toMult := d.toMultCtor(d.boolCC)
	client = make(map[string]*epilinkio.EntryShare[ShareT])
	server = make(map[string]*epilinkio.EntryShare[ShareT])
	for _, name := range d.cc.Epilink.FieldNames() {
		spec := d.cc.Epilink.Fields[name]
		switch d.cfg.Role {
		case Client:
			entries := epilinkio.ReplicateEntry(record[name], databaseSize)
			client[name], err = epilinkio.ShapeOwn(d.boolCC, entries, spec, toMult)
			if err != nil {
				return nil, nil, err
			}
			server[name], err = epilinkio.ShapeDummy(d.boolCC, databaseSize, spec, toMult)
			if err != nil {
				return nil, nil, err
			}
		case Server:
			client[name], err = epilinkio.ShapeDummy(d.boolCC, databaseSize, spec, toMult)
			if err != nil {
				return nil, nil, err
			}
			server[name], err = epilinkio.ShapeOwn(d.boolCC, db[name], spec, toMult)
			if err != nil {
				return nil, nil, err
			}
		}
	}
	return client, server, nil
}

// Reset resets the framework-party-adjacent state: the cached builder,
// constants and divider cache are dropped, but the underlying
// engine.Party/connection is left intact for the next SetInput/Build
// cycle (spec §4.7's reset() "resets the framework party and drops
// internal state").
func (d *Driver[ShareT]) Reset() {
	if d.b != nil {
		d.b.Reset()
	}
	d.consts = nil
	d.b = nil
	d.databaseSize = 0
	d.dividers = make(map[int]*engine.Divider)
}
