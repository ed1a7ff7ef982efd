package structset

import (
	"errors"
	"testing"

	v3 "github.com/rmera/structset/v3"
)

func mustMatrix(Te *testing.T, data ...float64) *v3.Matrix {
	Te.Helper()
	m, err := v3.NewMatrix(data)
	if err != nil {
		Te.Fatal(err)
	}
	return m
}

func cubic(Te *testing.T, a float64) *v3.Matrix {
	return mustMatrix(Te, a, 0, 0, 0, a, 0, 0, 0, a)
}

//chain returns a structure with n atoms along x, with atomic numbers z.
func chain(Te *testing.T, a float64, z ...int) *Structure {
	Te.Helper()
	coords := make([]float64, 0, 3*len(z))
	for i := range z {
		coords = append(coords, float64(i)*a, 0.5*float64(i), 0.25)
	}
	S, err := NewStructure(mustMatrix(Te, a*float64(len(z)), 0, 0, 0, a, 0, 0, 0, a), mustMatrix(Te, coords...), z)
	if err != nil {
		Te.Fatal(err)
	}
	return S
}

func sampleStructures(Te *testing.T) []*Structure {
	return []*Structure{
		chain(Te, 2.04, 79),
		chain(Te, 2.04, 46, 79),
		chain(Te, 2.04, 46, 46, 79),
	}
}

func TestEncodeFrames(Te *testing.T) {
	C, err := Encode(sampleStructures(Te))
	if err != nil {
		Te.Fatal(err)
	}
	if C.FrameSize() != 1 {
		Te.Errorf("frame size %d, want 1", C.FrameSize())
	}
	if !equalInts(C.NFrames(), []int{1, 2, 3}) {
		Te.Errorf("nframes %v", C.NFrames())
	}
	if !equalInts(C.CNFrames(), []int{0, 1, 3}) {
		Te.Errorf("cnframes %v", C.CNFrames())
	}
	if C.Frames() != 6 {
		Te.Errorf("%d frames, want 6", C.Frames())
	}
	if !equalInts(C.Size(), []int{1, 2, 3}) {
		Te.Errorf("sizes %v", C.Size())
	}
	if !equalInts(C.Indices(), []int{0, 1, 2}) {
		Te.Errorf("indices %v", C.Indices())
	}
	if el := C.Elements(); len(el) != 2 || el[0] != "Au" || el[1] != "Pd" {
		Te.Errorf("elements %v", el)
	}
	if C.HasEnergies() || C.Energies() != nil {
		Te.Error("a freshly encoded collection should have no energies")
	}
	if C.IsFrozen() {
		Te.Error("a freshly encoded collection should not be frozen")
	}
	if len(C.RawPositions()) != 3*C.Frames()*C.FrameSize() || len(C.RawAtomicNumbers()) != C.Frames()*C.FrameSize() {
		Te.Error("wrong flat array lengths")
	}
	if len(C.RawCells()) != 9*C.Len() {
		Te.Error("wrong cells length")
	}
}

func TestEncodeLargerFrames(Te *testing.T) {
	S := []*Structure{
		chain(Te, 1.0, 13, 13, 13, 13),
		chain(Te, 1.0, 13, 29, 13, 29, 29, 29, 13, 13),
	}
	C, err := Encode(S)
	if err != nil {
		Te.Fatal(err)
	}
	if C.FrameSize() != 4 || !equalInts(C.NFrames(), []int{1, 2}) || !equalInts(C.CNFrames(), []int{0, 1}) {
		Te.Fatalf("unexpected tiling: %s", C)
	}
	pos := C.Positions()
	if len(pos) != 3 {
		Te.Fatalf("%d frames, want 3", len(pos))
	}
	//second frame of the second structure holds its atoms 4..7
	if v := pos[2].Vec(0); v[0] != 4.0 || v[1] != 2.0 {
		Te.Errorf("frame 2 starts with %v", v)
	}
	nums := C.AtomicNumbers()
	if !equalInts(nums[1], []int{13, 29, 13, 29}) || !equalInts(nums[2], []int{29, 29, 13, 13}) {
		Te.Errorf("atomic numbers per frame %v", nums)
	}
}

func TestEncodeFailures(Te *testing.T) {
	if _, err := Encode(nil); !errors.Is(err, ErrValidation) {
		Te.Errorf("Encode(nil): %v", err)
	}
	if _, err := Encode([]*Structure{}); !errors.Is(err, ErrValidation) {
		Te.Errorf("Encode of an empty batch: %v", err)
	}
	good := chain(Te, 2, 79, 46)
	bad := []*Structure{
		{Cell: mustMatrix(Te, 1, 0, 0, 0, 1, 0), Coords: good.Coords, Numbers: good.Numbers},
		{Cell: good.Cell, Coords: good.Coords, Numbers: []int{79}},
		{Cell: good.Cell, Coords: good.Coords, Numbers: []int{79, 200}},
		{Cell: good.Cell, Coords: nil, Numbers: good.Numbers},
		nil,
	}
	for i, b := range bad {
		if _, err := Encode([]*Structure{good, b}); !errors.Is(err, ErrValidation) {
			Te.Errorf("bad structure %d: %v", i, err)
		}
	}
}

func TestSetStructuresKeepsReceiverOnError(Te *testing.T) {
	C, err := Encode(sampleStructures(Te))
	if err != nil {
		Te.Fatal(err)
	}
	if err := C.SetStructures([]*Structure{nil}); err == nil {
		Te.Fatal("expected an error")
	}
	if C.Len() != 3 || C.Frames() != 6 {
		Te.Errorf("collection modified by a failed SetStructures: %s", C)
	}
}

func TestNewCollection(Te *testing.T) {
	p := CollectionParams{
		NFrames:       []int{1, 2},
		FrameSize:     2,
		Cells:         []float64{1, 0, 0, 0, 1, 0, 0, 0, 1, 2, 0, 0, 0, 1, 0, 0, 0, 1},
		Positions:     make([]float64, 3*3*2),
		AtomicNumbers: []int{29, 29, 29, 13, 13, 13},
		Energies:      []float64{-1, -2},
		IDs:           []int{10, 20},
		PBC:           [][3]bool{{true, true, true}, {true, true, false}},
	}
	C, err := NewCollection(p)
	if err != nil {
		Te.Fatal(err)
	}
	if !equalInts(C.CNFrames(), []int{0, 1}) || !equalInts(C.Indices(), []int{10, 20}) {
		Te.Errorf("unexpected collection %s", C)
	}
	if el := C.Elements(); len(el) != 2 || el[0] != "Al" || el[1] != "Cu" {
		Te.Errorf("elements %v", el)
	}
	if g, _ := FrameSize(C.Size()); g != C.FrameSize() {
		Te.Errorf("frame size %d, gcd of the sizes %d", C.FrameSize(), g)
	}
	S, err := C.Structure(1)
	if err != nil {
		Te.Fatal(err)
	}
	if S.Len() != 4 || S.PBC[2] || S.Formula() != "Al3Cu" {
		Te.Errorf("structure 1: %d atoms, pbc %v, formula %s", S.Len(), S.PBC, S.Formula())
	}
	//p is copied
	p.Energies[0] = 100
	if C.Energies()[0] != -1 {
		Te.Error("NewCollection did not copy its input")
	}
	broken := []func(p *CollectionParams){
		func(p *CollectionParams) { p.NFrames = nil },
		func(p *CollectionParams) { p.FrameSize = 0 },
		func(p *CollectionParams) { p.Cells = p.Cells[:9] },
		func(p *CollectionParams) { p.Positions = p.Positions[:3] },
		func(p *CollectionParams) { p.AtomicNumbers = p.AtomicNumbers[:5] },
		func(p *CollectionParams) { p.Energies = []float64{1} },
		func(p *CollectionParams) { p.IDs = []int{1, 2, 3} },
		func(p *CollectionParams) { p.NFrames = []int{0, 3} },
		func(p *CollectionParams) { p.AtomicNumbers = []int{29, 29, 29, 13, 13, 0} },
	}
	for i, b := range broken {
		q := p
		q.Energies = []float64{-1, -2}
		b(&q)
		if _, err := NewCollection(q); !errors.Is(err, ErrValidation) {
			Te.Errorf("broken params %d: %v", i, err)
		}
	}
}

//Frames given smaller than the gcd of the atom counts are merged.
func TestNewCollectionMergesFrames(Te *testing.T) {
	positions := make([]float64, 3*6)
	for i := range positions {
		positions[i] = float64(i)
	}
	p := CollectionParams{
		NFrames:       []int{2, 4},
		FrameSize:     1,
		Cells:         []float64{1, 0, 0, 0, 1, 0, 0, 0, 1, 2, 0, 0, 0, 1, 0, 0, 0, 1},
		Positions:     positions,
		AtomicNumbers: []int{29, 13, 29, 13, 29, 13},
	}
	C, err := NewCollection(p)
	if err != nil {
		Te.Fatal(err)
	}
	if C.FrameSize() != 2 || !equalInts(C.NFrames(), []int{1, 2}) || !equalInts(C.CNFrames(), []int{0, 1}) {
		Te.Errorf("frame size %d, nframes %v, cnframes %v", C.FrameSize(), C.NFrames(), C.CNFrames())
	}
	if !equalInts(C.Size(), []int{2, 4}) || C.Frames() != 3 {
		Te.Errorf("sizes %v, %d frames", C.Size(), C.Frames())
	}
	if g, _ := FrameSize(C.Size()); g != C.FrameSize() {
		Te.Errorf("frame size %d, gcd of the sizes %d", C.FrameSize(), g)
	}
	S, err := C.Structure(1)
	if err != nil {
		Te.Fatal(err)
	}
	if v := S.Coords.Vec(0); v != [3]float64{6, 7, 8} {
		Te.Errorf("first atom of structure 1 at %v", v)
	}
	if S.Formula() != "Al2Cu2" {
		Te.Errorf("formula %s", S.Formula())
	}
	//a single structure becomes a single frame
	p = CollectionParams{
		NFrames:       []int{3},
		FrameSize:     2,
		Cells:         p.Cells[:9],
		Positions:     positions,
		AtomicNumbers: p.AtomicNumbers,
	}
	if C, err = NewCollection(p); err != nil {
		Te.Fatal(err)
	}
	if C.FrameSize() != 6 || !equalInts(C.NFrames(), []int{1}) {
		Te.Errorf("frame size %d, nframes %v", C.FrameSize(), C.NFrames())
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
