package config

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestFingerprintStableUnderFieldOrder(t *testing.T) {
	cfg := sampleConfig()
	fp1, err := cfg.Fingerprint()
	if err != nil {
		t.Fatal(err)
	}

	// Re-marshal/unmarshal through JSON to get Go's randomized map
	// iteration order, then confirm the fingerprint is unaffected.
	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatal(err)
	}
	var cfg2 EpilinkConfig
	if err := json.Unmarshal(data, &cfg2); err != nil {
		t.Fatal(err)
	}
	fp2, err := cfg2.Fingerprint()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(fp1, fp2) {
		t.Error("fingerprint must be stable across map re-iteration")
	}
}

func TestFingerprintDetectsMismatch(t *testing.T) {
	cfg1 := sampleConfig()
	cfg2 := sampleConfig()
	cfg2.Threshold = 0.5

	fp1, err := cfg1.Fingerprint()
	if err != nil {
		t.Fatal(err)
	}
	fp2, err := cfg2.Fingerprint()
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(fp1, fp2) {
		t.Error("differing thresholds must produce differing fingerprints")
	}
}

func TestLoadEpilinkConfigRejectsInvalid(t *testing.T) {
	r := bytes.NewBufferString(`{"fields": {}, "threshold": 0.9, "tentativeThreshold": 0.7}`)
	if _, err := LoadEpilinkConfig(r); err == nil {
		t.Error("expected rejection of a config with no fields")
	}
}
