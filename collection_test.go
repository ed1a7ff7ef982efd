package structset

import (
	"context"
	"errors"
	"math"
	"testing"
)

type fakeStore struct {
	calls int
	fail  error
	last  *Collection
}

func (f *fakeStore) Persist(ctx context.Context, c *Collection) (string, error) {
	f.calls++
	if f.fail != nil {
		return "", f.fail
	}
	f.last = c
	return "node-1", nil
}

func sameStructure(Te *testing.T, got, want *Structure) {
	Te.Helper()
	if !equalInts(got.Numbers, want.Numbers) {
		Te.Errorf("atomic numbers %v, want %v", got.Numbers, want.Numbers)
	}
	if got.PBC != want.PBC {
		Te.Errorf("pbc %v, want %v", got.PBC, want.PBC)
	}
	g, w := got.Cell.Data(), want.Cell.Data()
	for i := range w {
		if g[i] != w[i] {
			Te.Fatalf("cell %v, want %v", g, w)
		}
	}
	g, w = got.Coords.Data(), want.Coords.Data()
	if len(g) != len(w) {
		Te.Fatalf("%d coordinates, want %d", len(g), len(w))
	}
	for i := range w {
		if g[i] != w[i] {
			Te.Fatalf("coordinates %v, want %v", g, w)
		}
	}
}

func TestRoundTrip(Te *testing.T) {
	S := sampleStructures(Te)
	S[1].PBC = [3]bool{true, false, true}
	C, err := Encode(S)
	if err != nil {
		Te.Fatal(err)
	}
	for i, s := range S {
		got, err := C.Structure(i)
		if err != nil {
			Te.Fatal(err)
		}
		sameStructure(Te, got, s)
	}
	all := C.Structures()
	if len(all) != len(S) {
		Te.Fatalf("%d structures decoded, want %d", len(all), len(S))
	}
	//decoded structures don't share memory with the collection
	all[0].Coords.Set(0, 0, 99)
	again, _ := C.Structure(0)
	if again.Coords.At(0, 0) == 99 {
		Te.Error("decoded structure aliases the collection")
	}
}

func TestPdAuBcc(Te *testing.T) {
	//A bcc PdAu ternary-cell configuration, as produced by enumeration.
	cell := mustMatrix(Te, 0, -2.04, -2.04, -4.08, 0, 0, 2.04, 4.08, -2.04)
	coords := mustMatrix(Te, 0, 0, 0, -2.04, 0, -2.04, 0, 2.04, -2.04)
	S, err := NewStructure(cell, coords, []int{46, 46, 79})
	if err != nil {
		Te.Fatal(err)
	}
	prim, err := NewStructure(mustMatrix(Te, -1.02, 1.02, 1.02, 1.02, -1.02, 1.02, 1.02, 1.02, -1.02), mustMatrix(Te, 0, 0, 0), []int{79})
	if err != nil {
		Te.Fatal(err)
	}
	C, err := Encode([]*Structure{prim, S})
	if err != nil {
		Te.Fatal(err)
	}
	got, err := C.Structure(1)
	if err != nil {
		Te.Fatal(err)
	}
	if got.Formula() != "AuPd2" {
		Te.Errorf("formula %s, want AuPd2", got.Formula())
	}
	sameStructure(Te, got, S)
	conc, err := C.Concentration("Au")
	if err != nil {
		Te.Fatal(err)
	}
	if conc[0] != 1 || math.Abs(conc[1]-1.0/3) > 1e-12 {
		Te.Errorf("Au concentration %v", conc)
	}
	if _, err := C.Concentration("Zz"); err == nil {
		Te.Error("expected an error for an unknown symbol")
	}
}

func TestStructureIndex(Te *testing.T) {
	S := append(sampleStructures(Te), chain(Te, 1, 8), chain(Te, 1, 8, 8))
	C, err := Encode(S)
	if err != nil {
		Te.Fatal(err)
	}
	if C.Len() != 5 {
		Te.Fatalf("length %d", C.Len())
	}
	for _, idx := range []int{5, -1, 100} {
		_, err = C.Structure(idx)
		if !errors.Is(err, ErrIndex) {
			Te.Errorf("Structure(%d): %v", idx, err)
		}
		var ierr IndexError
		if !errors.As(err, &ierr) || ierr.Index != idx || ierr.Len != 5 {
			Te.Errorf("Structure(%d) returned %#v", idx, err)
		}
	}
}

func TestEnergies(Te *testing.T) {
	C, err := Encode(sampleStructures(Te))
	if err != nil {
		Te.Fatal(err)
	}
	if err := C.SetEnergies([]float64{1, 2}); !errors.Is(err, ErrValidation) {
		Te.Errorf("wrong-length energies: %v", err)
	}
	if C.HasEnergies() {
		Te.Error("failed SetEnergies labeled the collection")
	}
	e := []float64{-3.5, -4.25, -5}
	if err := C.SetEnergies(e); err != nil {
		Te.Fatal(err)
	}
	e[0] = 0
	got := C.Energies()
	if got[0] != -3.5 || got[1] != -4.25 || got[2] != -5 {
		Te.Errorf("energies %v", got)
	}
	if err := C.SetEnergies([]float64{1, 2, 3}); err != nil {
		Te.Errorf("overwriting energies: %v", err)
	}
	st, err := EnergyStats(C)
	if err != nil {
		Te.Fatal(err)
	}
	if st.N != 3 || st.Min != 1 || st.Max != 3 || st.Mean != 2 || math.Abs(st.StdDev-1) > 1e-12 {
		Te.Errorf("stats %s", st)
	}
	if err := C.SetIndices([]int{7, 8}); !errors.Is(err, ErrValidation) {
		Te.Errorf("wrong-length indices: %v", err)
	}
	if err := C.SetIndices([]int{7, 8, 9}); err != nil || C.Indices()[2] != 9 {
		Te.Errorf("SetIndices: %v %v", err, C.Indices())
	}
}

func TestStoreFreezes(Te *testing.T) {
	C, err := Encode(sampleStructures(Te))
	if err != nil {
		Te.Fatal(err)
	}
	if err := C.SetEnergies([]float64{-1, -2, -3}); err != nil {
		Te.Fatal(err)
	}
	st := new(fakeStore)
	id, err := C.Store(context.Background(), st)
	if err != nil {
		Te.Fatal(err)
	}
	if id != "node-1" || C.ID() != "node-1" || !C.IsFrozen() || st.calls != 1 {
		Te.Fatalf("after Store: id %q, %s, %d calls", id, C, st.calls)
	}
	if err := C.SetEnergies([]float64{1, 2, 3}); !errors.Is(err, ErrImmutable) {
		Te.Errorf("SetEnergies on a frozen collection: %v", err)
	}
	if err := C.SetStructures(sampleStructures(Te)); !errors.Is(err, ErrImmutable) {
		Te.Errorf("SetStructures on a frozen collection: %v", err)
	}
	if err := C.SetIndices([]int{1, 2, 3}); !errors.Is(err, ErrImmutable) {
		Te.Errorf("SetIndices on a frozen collection: %v", err)
	}
	if err := C.SetCollection(CollectionParams{}); !errors.Is(err, ErrImmutable) {
		Te.Errorf("SetCollection on a frozen collection: %v", err)
	}
	if _, err := C.Store(context.Background(), st); !errors.Is(err, ErrImmutable) || st.calls != 1 {
		Te.Errorf("second Store: %v, %d calls", err, st.calls)
	}
	if e := C.Energies(); e[0] != -1 {
		Te.Errorf("frozen energies changed: %v", e)
	}
	D := C.Clone()
	if D.IsFrozen() || D.ID() != "" {
		Te.Fatal("clone should be mutable and unstored")
	}
	if err := D.SetEnergies([]float64{1, 2, 3}); err != nil {
		Te.Fatal(err)
	}
	if e := C.Energies(); e[0] != -1 {
		Te.Errorf("labeling the clone changed the original: %v", e)
	}
	for i := 0; i < C.Len(); i++ {
		a, _ := C.Structure(i)
		b, _ := D.Structure(i)
		sameStructure(Te, b, a)
	}
}

func TestStoreFailure(Te *testing.T) {
	C, err := Encode(sampleStructures(Te))
	if err != nil {
		Te.Fatal(err)
	}
	boom := errors.New("disk full")
	if _, err := C.Store(context.Background(), &fakeStore{fail: boom}); !errors.Is(err, boom) {
		Te.Errorf("Store: %v", err)
	}
	if C.IsFrozen() {
		Te.Error("a failed Store froze the collection")
	}
	if _, err := new(Collection).Store(context.Background(), new(fakeStore)); !errors.Is(err, ErrValidation) {
		Te.Errorf("storing an empty collection: %v", err)
	}
	if _, err := EnergyStats(C); !errors.Is(err, ErrValidation) {
		Te.Errorf("EnergyStats without energies: %v", err)
	}
}
