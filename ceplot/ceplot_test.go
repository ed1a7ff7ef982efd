package ceplot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/plotter"

	"github.com/rmera/structset"
)

func labeled(t *testing.T) *structset.Collection {
	C, err := structset.NewCollection(structset.CollectionParams{
		NFrames:       []int{1, 1, 1, 1},
		FrameSize:     2,
		Cells:         make([]float64, 36),
		Positions:     make([]float64, 24),
		AtomicNumbers: []int{79, 79, 79, 46, 46, 46, 46, 79},
		Energies:      []float64{0, -0.1, 0, 0.2},
	})
	require.NoError(t, err)
	return C
}

func TestPoints(t *testing.T) {
	pts, err := Points(labeled(t), "Pd")
	require.NoError(t, err)
	assert.Equal(t, plotter.XYs{{X: 0, Y: 0}, {X: 0.5, Y: -0.1}, {X: 1, Y: 0}, {X: 0.5, Y: 0.2}}, pts)

	C := labeled(t).Clone()
	C2, err := structset.NewCollection(structset.CollectionParams{NFrames: []int{1}, FrameSize: 1, Cells: make([]float64, 9), Positions: make([]float64, 3), AtomicNumbers: []int{79}})
	require.NoError(t, err)
	_, err = Points(C2, "Au")
	assert.ErrorIs(t, err, structset.ErrValidation)
	_, err = Points(C, "Qq")
	assert.Error(t, err)
}

func TestLowerHull(t *testing.T) {
	pts := plotter.XYs{{X: 1, Y: 0}, {X: 0.5, Y: 0.2}, {X: 0, Y: 0}, {X: 0.5, Y: -0.1}, {X: 0.25, Y: 0.1}}
	assert.Equal(t, plotter.XYs{{X: 0, Y: 0}, {X: 0.5, Y: -0.1}, {X: 1, Y: 0}}, LowerHull(pts))
	assert.Len(t, LowerHull(plotter.XYs{{X: 0, Y: 1}}), 1)
}

func TestSave(t *testing.T) {
	p, err := EnergyConcentration(labeled(t), "Pd", "AuPd")
	require.NoError(t, err)
	name := filepath.Join(t.TempDir(), "hull.svg")
	require.NoError(t, Save(p, name))
	info, err := os.Stat(name)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())
}
