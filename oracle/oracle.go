// Package oracle is the clear-text reference implementation (C6): the
// same scoring algorithm as builder, over plain integers (sums and
// products masked to the circuit's bitlen like its fixed-width
// arithmetic; the argmax cross products in maxTie are taken at full
// 64-bit width, not masked) and over double
// floats (exact real arithmetic), used to validate the secure circuit
// and to study its precision loss (spec §4.6).
package oracle

import (
	"github.com/markkurossi/sepilinker/config"
	"github.com/markkurossi/sepilinker/epilinkio"
	"github.com/markkurossi/sepilinker/seerr"
)

// Result is one client record's clear-text linkage outcome, mirroring
// builder.LinkageShare's fields in plain form.
type Result struct {
	Index           int
	Match, TMatch   bool
	SumFieldWeights uint64
	SumWeights      uint64
}

// ExactResult is Result's floating-point counterpart, used for the
// double-oracle precision bound (Property 2).
type ExactResult struct {
	Index           int
	Match, TMatch   bool
	SumFieldWeights float64
	SumWeights      float64
}

// CountResult mirrors builder.CountResult.
type CountResult struct {
	Matches, TMatches int
}

// quotient is the oracle's local (num, den) pair, compared the same way
// gadget.MakeSelector's SelectMaxTie does: fw_a*w_b < fw_b*w_a, ties
// broken by the larger denominator (spec §4.6).
type quotient struct {
	num, den uint64
}

func maxTie(a, b quotient) quotient {
	crossA := a.num * b.den
	crossB := b.num * a.den
	if crossA > crossB {
		return a
	}
	if crossB > crossA {
		return b
	}
	if a.den >= b.den {
		return a
	}
	return b
}

func exchangeGroupMembers(cc *config.EpilinkConfig) map[string]bool {
	members := make(map[string]bool)
	for _, g := range cc.ExchangeGroups {
		for _, name := range g {
			members[name] = true
		}
	}
	return members
}

func permutations(n int) [][]int {
	if n == 0 {
		return [][]int{{}}
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	var out [][]int
	var permute func(prefix, rest []int)
	permute = func(prefix, rest []int) {
		if len(rest) == 0 {
			out = append(out, append([]int{}, prefix...))
			return
		}
		for i, v := range rest {
			next := append([]int{}, rest[:i]...)
			next = append(next, rest[i+1:]...)
			permute(append(prefix, v), next)
		}
	}
	permute(nil, idx)
	return out
}

func checkFields(cc *config.EpilinkConfig, client epilinkio.Record, row map[string]epilinkio.FieldEntry) error {
	for _, name := range cc.FieldNames() {
		if _, ok := client[name]; !ok {
			return seerr.Inputf("oracle", "client record missing field %q", name)
		}
		if _, ok := row[name]; !ok {
			return seerr.Inputf("oracle", "database row missing field %q", name)
		}
	}
	return nil
}

func rowOf(db epilinkio.Database, i int) map[string]epilinkio.FieldEntry {
	row := make(map[string]epilinkio.FieldEntry, len(db))
	for name, col := range db {
		row[name] = col[i]
	}
	return row
}
