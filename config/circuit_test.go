package config

import "testing"

func sampleConfig() *EpilinkConfig {
	return &EpilinkConfig{
		Fields: map[string]FieldSpec{
			"firstname": {Name: "firstname", Frequency: 0.01, ErrorRate: 0.05, Comparator: Dice, Kind: Bitmask, Bitsize: 500},
			"lastname":  {Name: "lastname", Frequency: 0.01, ErrorRate: 0.05, Comparator: Dice, Kind: Bitmask, Bitsize: 500},
			"birthdate": {Name: "birthdate", Frequency: 0.002, ErrorRate: 0.01, Comparator: Binary, Kind: String, Bitsize: 64},
		},
		ExchangeGroups:     [][]string{{"firstname", "lastname"}},
		Threshold:          0.9,
		TentativeThreshold: 0.7,
		Algorithm:          "epilink",
	}
}

func TestEpilinkConfigValidate(t *testing.T) {
	cfg := sampleConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestEpilinkConfigValidateRejectsMixedComparatorGroup(t *testing.T) {
	cfg := sampleConfig()
	cfg.ExchangeGroups = [][]string{{"firstname", "birthdate"}}
	if err := cfg.Validate(); err == nil {
		t.Error("expected rejection of mixed-comparator exchange group")
	}
}

func TestEpilinkConfigValidateRejectsThresholdOrdering(t *testing.T) {
	cfg := sampleConfig()
	cfg.TentativeThreshold = 0.95
	if err := cfg.Validate(); err == nil {
		t.Error("expected rejection of tentative_threshold > threshold")
	}
}

func TestEpilinkConfigValidateRejectsUnknownExchangeGroupField(t *testing.T) {
	cfg := sampleConfig()
	cfg.ExchangeGroups = [][]string{{"firstname", "nonexistent"}}
	if err := cfg.Validate(); err == nil {
		t.Error("expected rejection of unknown field in exchange group")
	}
}

func TestNewCircuitConfigPrecisionInvariant(t *testing.T) {
	cfg := sampleConfig()
	cc, err := NewCircuitConfig(cfg, false, DefaultBitlen)
	if err != nil {
		t.Fatal(err)
	}
	if cc.DicePrec+2*cc.WeightPrec+cc.headroomBits() > cc.Bitlen {
		t.Errorf("precision invariant violated: dice=%d weight=%d headroom=%d bitlen=%d",
			cc.DicePrec, cc.WeightPrec, cc.headroomBits(), cc.Bitlen)
	}
}

func TestRescaledWeightBounds(t *testing.T) {
	cfg := sampleConfig()
	cc, err := NewCircuitConfig(cfg, false, DefaultBitlen)
	if err != nil {
		t.Fatal(err)
	}
	w, err := cc.RescaledWeight("firstname")
	if err != nil {
		t.Fatal(err)
	}
	limit := uint64(1) << uint(cc.WeightPrec)
	if w >= limit {
		t.Errorf("rescaled weight %d exceeds weight_prec bound %d", w, limit)
	}
}

func TestRescaledWeightPairIsMean(t *testing.T) {
	cfg := sampleConfig()
	cc, err := NewCircuitConfig(cfg, false, DefaultBitlen)
	if err != nil {
		t.Fatal(err)
	}
	single, err := cc.RescaledWeight("firstname")
	if err != nil {
		t.Fatal(err)
	}
	pair, err := cc.RescaledWeightPair("firstname", "lastname")
	if err != nil {
		t.Fatal(err)
	}
	// firstname and lastname share identical stats, so the pair's mean
	// weight rescales to the same value as either field alone.
	if pair != single {
		t.Errorf("pair weight %d, want %d (fields have identical stats)", pair, single)
	}
}

func TestThresholdRescaled(t *testing.T) {
	cfg := sampleConfig()
	cc, err := NewCircuitConfig(cfg, false, DefaultBitlen)
	if err != nil {
		t.Fatal(err)
	}
	tr := cc.ThresholdRescaled()
	ttr := cc.TentativeThresholdRescaled()
	if tr <= ttr {
		t.Errorf("threshold_rescaled (%d) should exceed tentative (%d)", tr, ttr)
	}
}

func TestSetIdealPrecision(t *testing.T) {
	cfg := sampleConfig()
	cc, err := NewCircuitConfig(cfg, false, DefaultBitlen)
	if err != nil {
		t.Fatal(err)
	}
	if err := cc.SetIdealPrecision(); err != nil {
		t.Fatal(err)
	}
	if cc.DicePrec+2*cc.WeightPrec+cc.headroomBits() > cc.Bitlen {
		t.Error("ideal precision violates the overflow invariant")
	}
}
