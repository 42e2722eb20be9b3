package epilinkio

import "testing"

func TestRandomRecordRespectsBitsize(t *testing.T) {
	fields := map[string]int{"a": 8, "b": 16}
	rec, err := RandomRecord(fields, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	for name, bitsize := range fields {
		e, ok := rec[name]
		if !ok || !e.Present {
			t.Fatalf("field %q should be present at presence=1.0", name)
		}
		if e.Bitmask.BitLen() > bitsize {
			t.Errorf("field %q bitlen %d exceeds requested bitsize %d", name, e.Bitmask.BitLen(), bitsize)
		}
	}
}

func TestRandomRecordAllMissing(t *testing.T) {
	fields := map[string]int{"a": 8}
	rec, err := RandomRecord(fields, 0.0)
	if err != nil {
		t.Fatal(err)
	}
	if rec["a"].Present {
		t.Error("field should be missing at presence=0.0")
	}
}

func TestRandomDatabaseColumnLengths(t *testing.T) {
	fields := map[string]int{"a": 8, "b": 8}
	db, err := RandomDatabase(fields, 5, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	size, err := db.Size()
	if err != nil {
		t.Fatal(err)
	}
	if size != 5 {
		t.Errorf("database size = %d, want 5", size)
	}
}
