package driver

import (
	"math/big"

	"github.com/markkurossi/sepilinker/builder"
	"github.com/markkurossi/sepilinker/epilinkio"
	"github.com/markkurossi/sepilinker/seerr"
	"github.com/markkurossi/sepilinker/share"
)

// LinkageResult is the outcome of one client record scored against the
// whole server database. Per spec §4.5.2 the default policy keeps index,
// match and tmatch secret-shared; matching_mode=true reveals match/tmatch
// (index stays shared); debug reveals everything plus the winning
// quotient. IndexRevealed/MatchRevealed/TMatchRevealed report which of
// Index/Match/TMatch actually hold a plaintext value for this call — when
// false, the corresponding *Share field carries the still-secret output
// for the caller to compose further (e.g. forward into another
// computation) instead.
type LinkageResult struct {
	Index  uint64
	Match  bool
	TMatch bool

	IndexRevealed  bool
	MatchRevealed  bool
	TMatchRevealed bool

	IndexShare  *share.BoolShare
	MatchShare  *share.BoolShare
	TMatchShare *share.BoolShare

	Num *big.Int
	Den *big.Int
}

// RunAsClient runs one linkage query as the client: r is the caller's
// own record, databaseSize must equal the server's database row count
// (agreed out of band; the driver does not exchange it).
func (d *Driver[ShareT]) RunAsClient(r epilinkio.Record, databaseSize int, debug bool) (*LinkageResult, error) {
	if d.cfg.Role != Client {
		return nil, seerr.Statef("driver.runasclient", "driver is configured for role %s", d.cfg.Role)
	}
	return d.runLinkage(databaseSize, r, nil, debug)
}

// RunAsServer runs one linkage query as the server, offering its whole
// database against the client's (locally dummy) record.
func (d *Driver[ShareT]) RunAsServer(db epilinkio.Database, debug bool) (*LinkageResult, error) {
	if d.cfg.Role != Server {
		return nil, seerr.Statef("driver.runasserver", "driver is configured for role %s", d.cfg.Role)
	}
	size, err := db.Size()
	if err != nil {
		return nil, err
	}
	return d.runLinkage(size, nil, db, debug)
}

func (d *Driver[ShareT]) runLinkage(databaseSize int, r epilinkio.Record, db epilinkio.Database, debug bool) (*LinkageResult, error) {
	if d.party == nil {
		return nil, seerr.Statef("driver.runlinkage", "connect() was not called")
	}
	d.ensure(databaseSize)
	d.b.ResultDebug = debug

	client, server, err := d.shapeInputs(databaseSize, r, db)
	if err != nil {
		return nil, err
	}
	if err := d.b.SetInput(client, server, databaseSize); err != nil {
		return nil, err
	}

	linkage, err := d.b.BuildLinkageCircuit()
	if err != nil {
		return nil, err
	}
	d.stats = d.b.Stats

	res := &LinkageResult{}

	// index is secret-shared in every mode except debug (spec §4.5.2):
	// matching_mode only lifts the veil on match/tmatch, never on index.
	indexTarget := share.RevealNone
	if debug {
		indexTarget = share.RevealAll
	}
	idxVals, err := share.NewBoolOut(linkage.Index, indexTarget).Reveal()
	if err != nil {
		return nil, seerr.New(seerr.Protocol, "driver.runlinkage", err)
	}
	if indexTarget == share.RevealAll {
		res.Index = idxVals[0].Uint64()
		res.IndexRevealed = true
	} else {
		res.IndexShare = linkage.Index
	}

	// match/tmatch are secret-shared by default, revealed to both parties
	// when matching_mode is on (or unconditionally under debug).
	matchTarget := share.RevealNone
	if debug || d.cc.MatchingMode {
		matchTarget = share.RevealAll
	}
	matchVals, err := share.NewBoolOut(linkage.Match, matchTarget).Reveal()
	if err != nil {
		return nil, seerr.New(seerr.Protocol, "driver.runlinkage", err)
	}
	if matchTarget == share.RevealAll {
		res.Match = matchVals[0].Sign() != 0
		res.MatchRevealed = true
	} else {
		res.MatchShare = linkage.Match
	}

	tmatchVals, err := share.NewBoolOut(linkage.TMatch, matchTarget).Reveal()
	if err != nil {
		return nil, seerr.New(seerr.Protocol, "driver.runlinkage", err)
	}
	if matchTarget == share.RevealAll {
		res.TMatch = tmatchVals[0].Sign() != 0
		res.TMatchRevealed = true
	} else {
		res.TMatchShare = linkage.TMatch
	}

	if debug {
		numBool, err := d.b.Ops.ToBool(linkage.Num)
		if err != nil {
			return nil, err
		}
		denBool, err := d.b.Ops.ToBool(linkage.Den)
		if err != nil {
			return nil, err
		}
		numVals, err := share.NewBoolOut(numBool, share.RevealAll).Reveal()
		if err != nil {
			return nil, seerr.New(seerr.Protocol, "driver.runlinkage", err)
		}
		denVals, err := share.NewBoolOut(denBool, share.RevealAll).Reveal()
		if err != nil {
			return nil, seerr.New(seerr.Protocol, "driver.runlinkage", err)
		}
		res.Num, res.Den = numVals[0], denVals[0]
	}

	return res, nil
}

// RunCount runs run_count (spec §4.5.3), tallying per-row matches/
// tmatches across the whole database without revealing any winning
// index.
func (d *Driver[ShareT]) RunCount(r epilinkio.Record, db epilinkio.Database, databaseSize int) (*builder.CountResult, error) {
	if d.party == nil {
		return nil, seerr.Statef("driver.runcount", "connect() was not called")
	}
	d.ensure(databaseSize)

	client, server, err := d.shapeInputs(databaseSize, r, db)
	if err != nil {
		return nil, err
	}
	if err := d.b.SetInput(client, server, databaseSize); err != nil {
		return nil, err
	}
	count, err := d.b.BuildCountCircuit()
	if err != nil {
		return nil, err
	}
	d.stats = d.b.Stats
	return count, nil
}
