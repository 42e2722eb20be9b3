// Package epilinkio shapes per-party plaintext records into the shared
// input a circuit builder can consume: per-field value/delta/hamming-
// weight shares, dummy fill-in for the non-owning party, and the small
// set of constants cached once per computation.
package epilinkio

import (
	"math/big"
	"math/bits"

	"github.com/markkurossi/sepilinker/seerr"
)

// FieldEntry is an optional bitmask value: a missing value is represented
// explicitly (nil) and forces delta=0 for that field.
type FieldEntry struct {
	Bitmask *big.Int
	Present bool
}

// NewFieldEntry wraps a present value.
func NewFieldEntry(v *big.Int) FieldEntry {
	return FieldEntry{Bitmask: v, Present: true}
}

// Missing is the explicit absent-value marker.
var Missing = FieldEntry{}

// HammingWeight returns the popcount of a present entry's bitmask, 0 for
// a missing one.
func (e FieldEntry) HammingWeight() int {
	if !e.Present || e.Bitmask == nil {
		return 0
	}
	sum := 0
	for _, w := range e.Bitmask.Bits() {
		sum += bits.OnesCount(uint(w))
	}
	return sum
}

// Record is a single record: field name to FieldEntry.
type Record map[string]FieldEntry

// Database is a column store: field name to an ordered sequence of
// FieldEntry, all columns of identical length (database_size).
type Database map[string][]FieldEntry

// Size returns the database_size, validating that every column has the
// same length.
func (d Database) Size() (int, error) {
	size := -1
	for name, col := range d {
		if size == -1 {
			size = len(col)
			continue
		}
		if len(col) != size {
			return 0, seerr.Inputf("database.size", "column %q has length %d, want %d", name, len(col), size)
		}
	}
	if size == -1 {
		return 0, seerr.Inputf("database.size", "database has no columns")
	}
	return size, nil
}

// RecordFromHex decodes a record given as field name to hex-encoded
// bitmask (or integer, big-endian), the wire format cmd/sepilinker reads
// from its -input JSON file. An empty string marks a missing value.
func RecordFromHex(raw map[string]string) (Record, error) {
	r := make(Record, len(raw))
	for name, s := range raw {
		entry, err := fieldEntryFromHex(s)
		if err != nil {
			return nil, seerr.Inputf("recordfromhex", "field %q: %v", name, err)
		}
		r[name] = entry
	}
	return r, nil
}

// DatabaseFromHex decodes a column store given as field name to a
// sequence of hex-encoded bitmasks, the server-side counterpart of
// RecordFromHex.
func DatabaseFromHex(raw map[string][]string) (Database, error) {
	db := make(Database, len(raw))
	for name, col := range raw {
		entries := make([]FieldEntry, len(col))
		for i, s := range col {
			entry, err := fieldEntryFromHex(s)
			if err != nil {
				return nil, seerr.Inputf("databasefromhex", "field %q row %d: %v", name, i, err)
			}
			entries[i] = entry
		}
		db[name] = entries
	}
	return db, nil
}

func fieldEntryFromHex(s string) (FieldEntry, error) {
	if s == "" {
		return Missing, nil
	}
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		return FieldEntry{}, seerr.Inputf("fieldentryfromhex", "invalid hex value %q", s)
	}
	return NewFieldEntry(v), nil
}

// Hex returns the entry's wire encoding, the inverse of
// fieldEntryFromHex.
func (e FieldEntry) Hex() string {
	if !e.Present || e.Bitmask == nil {
		return ""
	}
	return e.Bitmask.Text(16)
}
