package config

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/markkurossi/sepilinker/seerr"
)

// EpilinkConfig is the complete, immutable public description of one
// linkage computation: field specs, exchange groups and thresholds, held
// identically by both parties.
type EpilinkConfig struct {
	Fields             map[string]FieldSpec `json:"fields"`
	ExchangeGroups     [][]string           `json:"exchangeGroups"`
	Threshold          float64              `json:"threshold"`
	TentativeThreshold float64              `json:"tentativeThreshold"`

	// Algorithm names the scoring algorithm this configuration drives.
	// EpiLink is the only one this module implements; the field is carried
	// so a config blob is self-describing the way the original's JSON
	// schema requires (spec.md §6 collaborators note).
	Algorithm string `json:"algorithm"`
}

// FieldNames returns the field names in deterministic (lexicographic)
// order, the iteration order spec §5's "Ordering guarantees" requires.
func (c *EpilinkConfig) FieldNames() []string {
	names := make([]string, 0, len(c.Fields))
	for name := range c.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MaxWeight returns the maximum real weight across all fields.
func (c *EpilinkConfig) MaxWeight() float64 {
	max := 0.0
	first := true
	for _, name := range c.FieldNames() {
		w := c.Fields[name].Weight()
		if first || w > max {
			max = w
			first = false
		}
	}
	return max
}

// Validate checks every ConfigError invariant spec §7 assigns to the
// config model: field validity, threshold ordering, exchange-group
// disjointness, comparator/bitsize homogeneity within a group, and that
// every referenced field name exists.
func (c *EpilinkConfig) Validate() error {
	if len(c.Fields) == 0 {
		return seerr.Configf("epilinkconfig.validate", "no fields configured")
	}
	for name, f := range c.Fields {
		if f.Name == "" {
			f.Name = name
		}
		if err := f.Validate(); err != nil {
			return err
		}
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		return seerr.Configf("epilinkconfig.validate", "threshold must be in [0,1], got %v", c.Threshold)
	}
	if c.TentativeThreshold < 0 || c.TentativeThreshold > 1 {
		return seerr.Configf("epilinkconfig.validate", "tentativeThreshold must be in [0,1], got %v", c.TentativeThreshold)
	}
	if c.Threshold < c.TentativeThreshold {
		return seerr.Configf("epilinkconfig.validate", "threshold (%v) must be >= tentativeThreshold (%v)", c.Threshold, c.TentativeThreshold)
	}

	seen := make(map[string]int) // field name -> group index
	for gi, group := range c.ExchangeGroups {
		if len(group) < 2 {
			return seerr.Configf("epilinkconfig.validate", "exchange group %d: needs at least two members", gi)
		}
		var comparator Comparator
		var bitsize int
		for mi, name := range group {
			f, ok := c.Fields[name]
			if !ok {
				return seerr.Configf("epilinkconfig.validate", "exchange group %d: unknown field %q", gi, name)
			}
			if other, dup := seen[name]; dup {
				return seerr.Configf("epilinkconfig.validate", "field %q appears in exchange groups %d and %d", name, other, gi)
			}
			seen[name] = gi
			if mi == 0 {
				comparator, bitsize = f.Comparator, f.Bitsize
				continue
			}
			if f.Comparator != comparator {
				return seerr.Configf("epilinkconfig.validate", "exchange group %d: mixed comparators", gi)
			}
			if f.Bitsize != bitsize {
				return seerr.Configf("epilinkconfig.validate", "exchange group %d: mixed bitsizes", gi)
			}
		}
	}
	return nil
}

// LoadEpilinkConfig decodes and validates an EpilinkConfig from JSON, the
// schema the REST façade uses per spec §6 (out of scope here, but its
// on-wire shape is honoured for parity).
func LoadEpilinkConfig(r io.Reader) (*EpilinkConfig, error) {
	var c EpilinkConfig
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return nil, seerr.Configf("loadepilinkconfig", "decode: %v", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Fingerprint returns a canonical, deterministic digest of c suitable for
// the pre-protocol config-match handshake (spec §6): both parties hash
// their own copy and compare digests, aborting on mismatch rather than
// diffing the structures field by field.
func (c *EpilinkConfig) Fingerprint() ([]byte, error) {
	canon := canonicalConfig{
		Threshold:          c.Threshold,
		TentativeThreshold: c.TentativeThreshold,
		Algorithm:          c.Algorithm,
	}
	for _, name := range c.FieldNames() {
		f := c.Fields[name]
		canon.Fields = append(canon.Fields, canonicalField{
			Name:       name,
			Frequency:  f.Frequency,
			ErrorRate:  f.ErrorRate,
			Comparator: int(f.Comparator),
			Kind:       int(f.Kind),
			Bitsize:    f.Bitsize,
		})
	}
	for _, group := range c.ExchangeGroups {
		sorted := append([]string{}, group...)
		sort.Strings(sorted)
		canon.ExchangeGroups = append(canon.ExchangeGroups, sorted)
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(canon); err != nil {
		return nil, fmt.Errorf("config: fingerprint: %w", err)
	}
	sum := sha256.Sum256(buf.Bytes())
	return sum[:], nil
}

type canonicalField struct {
	Name       string  `json:"name"`
	Frequency  float64 `json:"frequency"`
	ErrorRate  float64 `json:"errorRate"`
	Comparator int      `json:"comparator"`
	Kind       int      `json:"kind"`
	Bitsize    int      `json:"bitsize"`
}

type canonicalConfig struct {
	Fields             []canonicalField `json:"fields"`
	ExchangeGroups     [][]string       `json:"exchangeGroups"`
	Threshold          float64          `json:"threshold"`
	TentativeThreshold float64          `json:"tentativeThreshold"`
	Algorithm          string           `json:"algorithm"`
}
