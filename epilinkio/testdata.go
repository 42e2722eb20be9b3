package epilinkio

import (
	"crypto/rand"
	"math/big"
)

// RandomBitmask returns a uniformly random bitsize-bit value, for
// generating synthetic bloom-filter-style field values in tests and
// benchmarks (original_source/'s test generators build records the same
// way, sampling each field independently rather than fixing a corpus).
func RandomBitmask(bitsize int) (*big.Int, error) {
	v, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), uint(bitsize)))
	if err != nil {
		return nil, err
	}
	return v, nil
}

// RandomRecord builds a synthetic record with one random entry per named
// field, present with probability presence (in [0,1]; values outside are
// clamped).
func RandomRecord(fieldBitsizes map[string]int, presence float64) (Record, error) {
	if presence < 0 {
		presence = 0
	}
	if presence > 1 {
		presence = 1
	}
	rec := make(Record, len(fieldBitsizes))
	threshold := new(big.Int).SetInt64(int64(presence * 1e9))
	scale := big.NewInt(1e9)
	for name, bitsize := range fieldBitsizes {
		coin, err := rand.Int(rand.Reader, scale)
		if err != nil {
			return nil, err
		}
		if coin.Cmp(threshold) >= 0 {
			rec[name] = Missing
			continue
		}
		v, err := RandomBitmask(bitsize)
		if err != nil {
			return nil, err
		}
		rec[name] = NewFieldEntry(v)
	}
	return rec, nil
}

// RandomDatabase builds a synthetic column-store database of the given
// size, one independently-sampled RandomRecord per row.
func RandomDatabase(fieldBitsizes map[string]int, size int, presence float64) (Database, error) {
	db := make(Database, len(fieldBitsizes))
	for name := range fieldBitsizes {
		db[name] = make([]FieldEntry, size)
	}
	for i := 0; i < size; i++ {
		rec, err := RandomRecord(fieldBitsizes, presence)
		if err != nil {
			return nil, err
		}
		for name := range fieldBitsizes {
			db[name][i] = rec[name]
		}
	}
	return db, nil
}
