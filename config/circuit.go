package config

import (
	"math"

	"github.com/markkurossi/sepilinker/seerr"
)

// BooleanSharing names which of the two Boolean sharings is primary; the
// other is used only for the occasional conversion.
type BooleanSharing int

// Boolean sharings.
const (
	Yao BooleanSharing = iota
	GMW
)

func (b BooleanSharing) String() string {
	if b == GMW {
		return "gmw"
	}
	return "yao"
}

// CircuitConfig wraps an EpilinkConfig with the protocol parameters that
// govern how the circuit is actually built: bit width, fixed-point
// precisions, and the sharing strategy.
type CircuitConfig struct {
	Epilink *EpilinkConfig

	MatchingMode bool
	Bitlen       int

	DicePrec   int
	WeightPrec int

	UseConversion  bool
	BooleanSharing BooleanSharing

	maxBitmaskBits int
	nfields        int
}

// DefaultBitlen is the default circuit integer width (spec §3).
const DefaultBitlen = 32

// NewCircuitConfig wraps cfg with protocol parameters and computes the
// default precisions (spec §4.3). maxBitmaskBits is the largest bitsize
// among this config's DICE-comparator fields.
func NewCircuitConfig(cfg *EpilinkConfig, matchingMode bool, bitlen int) (*CircuitConfig, error) {
	if bitlen <= 0 {
		bitlen = DefaultBitlen
	}
	cc := &CircuitConfig{
		Epilink:      cfg,
		MatchingMode: matchingMode,
		Bitlen:       bitlen,
	}
	cc.maxBitmaskBits = maxBitmaskBits(cfg)
	cc.nfields = len(cfg.Fields)
	if err := cc.computeDefaultPrecisions(); err != nil {
		return nil, err
	}
	return cc, nil
}

func maxBitmaskBits(cfg *EpilinkConfig) int {
	max := 0
	for _, f := range cfg.Fields {
		if f.Comparator == Dice && f.Bitsize > max {
			max = f.Bitsize
		}
	}
	return max
}

func ceilLog2(n int) int {
	if n <= 1 {
		return 0
	}
	return int(math.Ceil(math.Log2(float64(n))))
}

// headroomBits returns the ceil(log2(nfields^2)) bits reserved for
// summation headroom, per spec §4.3's overflow precondition; dice_prec and
// weight_prec share the rest of bitlen.
func (c *CircuitConfig) headroomBits() int {
	return ceilLog2(c.nfields * c.nfields)
}

func (c *CircuitConfig) computeDefaultPrecisions() error {
	// The 16-bit fixed-point integer divider apply_file_binary is built
	// against constrains dice_prec to fit the divider's width.
	dicePrec := 16 - 1 - ceilLog2(c.maxBitmaskBits+1)
	if dicePrec < 1 {
		return seerr.Configf("circuitconfig", "maxBitmaskBits %d leaves no room for dice_prec", c.maxBitmaskBits)
	}
	headroom := c.headroomBits()
	weightPrec := (c.Bitlen - headroom - dicePrec) / 2
	if weightPrec < 1 {
		return seerr.Configf("circuitconfig", "bitlen %d too small for %d fields at dice_prec %d", c.Bitlen, c.nfields, dicePrec)
	}
	return c.SetPrecisions(dicePrec, weightPrec)
}

// SetPrecisions manually overrides the fixed-point precisions, asserting
// the same overflow invariant the default computation does.
func (c *CircuitConfig) SetPrecisions(dicePrec, weightPrec int) error {
	if dicePrec+2*weightPrec+c.headroomBits() > c.Bitlen {
		return seerr.Configf("circuitconfig.setprecisions",
			"dice_prec(%d) + 2*weight_prec(%d) + headroom(%d) exceeds bitlen(%d)",
			dicePrec, weightPrec, c.headroomBits(), c.Bitlen)
	}
	c.DicePrec = dicePrec
	c.WeightPrec = weightPrec
	return nil
}

// SetIdealPrecision distributes the available bits equally between
// weights and dice, ignoring the 16-bit divider limitation; provided for
// benchmarking only (spec §4.3).
func (c *CircuitConfig) SetIdealPrecision() error {
	headroom := c.headroomBits()
	available := c.Bitlen - headroom
	dicePrec := available / 3
	weightPrec := (available - dicePrec) / 2
	return c.SetPrecisions(dicePrec, weightPrec)
}

// RescaledWeight returns the rescaled integer weight for a single field,
// round(w/max_weight * (2^weight_prec - 1)).
func (c *CircuitConfig) RescaledWeight(name string) (uint64, error) {
	f, ok := c.Epilink.Fields[name]
	if !ok {
		return 0, seerr.Configf("circuitconfig.rescaledweight", "unknown field %q", name)
	}
	return c.rescale(f.Weight()), nil
}

// RescaledWeightPair returns the rescaled integer weight for a field
// pair, using the arithmetic mean of their real weights — the convention
// this module uses when pairing two fields from an exchange group.
func (c *CircuitConfig) RescaledWeightPair(name1, name2 string) (uint64, error) {
	f1, ok := c.Epilink.Fields[name1]
	if !ok {
		return 0, seerr.Configf("circuitconfig.rescaledweightpair", "unknown field %q", name1)
	}
	f2, ok := c.Epilink.Fields[name2]
	if !ok {
		return 0, seerr.Configf("circuitconfig.rescaledweightpair", "unknown field %q", name2)
	}
	mean := (f1.Weight() + f2.Weight()) / 2
	return c.rescale(mean), nil
}

func (c *CircuitConfig) rescale(w float64) uint64 {
	maxW := c.Epilink.MaxWeight()
	if maxW == 0 {
		return 0
	}
	scale := float64((uint64(1) << uint(c.WeightPrec)) - 1)
	v := math.Round(w / maxW * scale)
	if v < 0 {
		v = 0
	}
	return uint64(v)
}

// ThresholdRescaled returns round(threshold * 2^dice_prec).
func (c *CircuitConfig) ThresholdRescaled() uint64 {
	return uint64(math.Round(c.Epilink.Threshold * float64(uint64(1)<<uint(c.DicePrec))))
}

// TentativeThresholdRescaled returns round(tentative_threshold * 2^dice_prec).
func (c *CircuitConfig) TentativeThresholdRescaled() uint64 {
	return uint64(math.Round(c.Epilink.TentativeThreshold * float64(uint64(1)<<uint(c.DicePrec))))
}
