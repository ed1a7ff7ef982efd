package provenance

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmera/structset"
)

func sample(t *testing.T) *structset.Collection {
	t.Helper()
	C, err := structset.NewCollection(structset.CollectionParams{
		NFrames:   []int{1, 2},
		FrameSize: 2,
		Cells: []float64{
			2, 0, 0, 0, 2, 0, 0, 0, 2,
			4, 0, 0, 0, 2, 0, 0, 0, 2,
		},
		Positions: []float64{
			0, 0, 0, 1, 1, 1,
			0, 0, 0, 1, 1, 1, 2, 0, 0, 3, 1, 1,
		},
		AtomicNumbers: []int{29, 79, 29, 29, 79, 29},
		Energies:      []float64{-3.5, -7.25},
		PBC:           [][3]bool{{true, true, true}, {true, true, false}},
	})
	require.NoError(t, err)
	return C
}

func backends(t *testing.T) map[string]Store {
	dir, err := Open("dir", filepath.Join(t.TempDir(), "store"))
	require.NoError(t, err)
	db, err := Open("sqlite", filepath.Join(t.TempDir(), "db", "structset.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	mem, err := Open("memory", "")
	require.NoError(t, err)
	return map[string]Store{"memory": mem, "dir": dir, "sqlite": db}
}

func TestStores(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			C := sample(t)
			id, err := C.Store(ctx, st)
			require.NoError(t, err)
			assert.True(t, C.IsFrozen())
			assert.Equal(t, id, C.ID())

			L, err := st.Load(ctx, id)
			require.NoError(t, err)
			assert.True(t, L.IsFrozen())
			assert.Equal(t, id, L.ID())
			assert.Equal(t, C.FrameSize(), L.FrameSize())
			assert.Equal(t, C.NFrames(), L.NFrames())
			assert.Equal(t, C.RawCells(), L.RawCells())
			assert.Equal(t, C.RawPositions(), L.RawPositions())
			assert.Equal(t, C.RawAtomicNumbers(), L.RawAtomicNumbers())
			assert.Equal(t, C.Energies(), L.Energies())
			assert.Equal(t, C.PBC(), L.PBC())
			assert.Equal(t, C.Elements(), L.Elements())

			assert.ErrorIs(t, L.SetEnergies([]float64{0, 0}), structset.ErrImmutable)

			//relabeling goes through a clone, stored with a new identity
			D := L.Clone()
			require.NoError(t, D.SetEnergies([]float64{1, 2}))
			id2, err := D.Store(ctx, st)
			require.NoError(t, err)
			assert.NotEqual(t, id, id2)

			again, err := st.Load(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, []float64{-3.5, -7.25}, again.Energies())

			ids, err := st.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{id, id2}, ids)

			_, err = st.Load(ctx, "00000000-0000-0000-0000-000000000000")
			assert.ErrorIs(t, err, ErrNotFound)
			_, err = st.Load(ctx, "../etc")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestMemoryKeepsCopies(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()
	C := sample(t)
	id, err := st.Persist(ctx, C)
	require.NoError(t, err)
	//Persist alone doesn't freeze the caller's collection, Store does.
	require.NoError(t, C.SetEnergies([]float64{0, 0}))
	L, err := st.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []float64{-3.5, -7.25}, L.Energies())
}

func TestDirLayout(t *testing.T) {
	ctx := context.Background()
	D, err := NewDir(filepath.Join(t.TempDir(), "store"))
	require.NoError(t, err)
	id, err := sample(t).Store(ctx, D)
	require.NoError(t, err)
	for _, f := range []string{"cells.raw.zst", "coordinates.raw.zst", "atomic_numbers.raw.zst", "nframes.raw.zst", "energies.raw.zst", "pbc.raw.zst", "indices.raw.zst", MetaFile} {
		_, err := os.Stat(filepath.Join(D.Root(), id, f))
		assert.NoError(t, err, f)
	}
	m, err := D.Meta(id)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Length)
	assert.Equal(t, 2, m.FrameSize)
	assert.Equal(t, []string{"Au", "Cu"}, m.Elements)
	assert.True(t, m.Energies)

	//no temporary directories are left behind
	entries, err := os.ReadDir(D.Root())
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp-")
	}

	//a broken entry makes Load fail with the missing table
	require.NoError(t, os.Remove(filepath.Join(D.Root(), id, "coordinates.raw.zst")))
	_, err = D.Load(ctx, id)
	assert.ErrorIs(t, err, structset.ErrIncompleteOutput)
}

func TestDirConcurrentPersist(t *testing.T) {
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "store")
	var wg sync.WaitGroup
	ids := make([]string, 8)
	errs := make([]error, 8)
	colls := make([]*structset.Collection, 8)
	for i := range colls {
		colls[i] = sample(t)
	}
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			D, err := NewDir(root)
			if err != nil {
				errs[i] = err
				return
			}
			ids[i], errs[i] = D.Persist(ctx, colls[i])
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}
	D, err := NewDir(root)
	require.NoError(t, err)
	listed, err := D.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, ids, listed)
}

func TestOpenUnknown(t *testing.T) {
	_, err := Open("s3", "bucket")
	assert.Error(t, err)
}
