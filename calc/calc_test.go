package calc

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmera/structset"
	v3 "github.com/rmera/structset/v3"
)

//fakeProgram writes a shell script with the given body and returns a command running it.
func fakeProgram(t *testing.T, name, body string) string {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("no sh available")
	}
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return "sh " + path
}

func prototype(t *testing.T) *structset.Structure {
	t.Helper()
	cell, err := v3.NewMatrix([]float64{0, 2.04, 2.04, 2.04, 0, 2.04, 2.04, 2.04, 0})
	require.NoError(t, err)
	coords, err := v3.NewMatrix([]float64{0, 0, 0})
	require.NoError(t, err)
	S, err := structset.NewStructure(cell, coords, []int{79})
	require.NoError(t, err)
	return S
}

const enumScript = `test -f "$1" || exit 3
printf '1 0 0\n0 1 0\n0 0 1\n2 0 0\n0 1 0\n0 0 1\n' > cells.raw
printf '0 0 0\n0 0 0\n1 0 0\n' > coordinates.raw
printf '79\n79\n46\n' > atomic_numbers.raw
printf '1\n2\n' > nframes.raw
echo Done
`

func TestSizes(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3}, Sizes(1, 3))
	assert.Equal(t, []int{2}, Sizes(2, 2))
	assert.Equal(t, []int{4}, Sizes(4, 1))
}

func TestEnumerate(t *testing.T) {
	dir := t.TempDir()
	h := NewEnumerateHandle()
	h.SetCommand(fakeProgram(t, "genenum.sh", enumScript))
	h.SetConcentrationRestrictions(map[string][2]float64{"Au": {0, 0.5}})
	require.NoError(t, h.BuildInput(dir, prototype(t), [][]string{{"Au", "Pd"}}, Sizes(1, 3)))

	data, err := os.ReadFile(filepath.Join(dir, DefaultInput))
	require.NoError(t, err)
	var in map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &in))
	assert.Equal(t, []interface{}{1.0, 2.0, 3.0}, in["sizes"])
	assert.Contains(t, in, "concentration_restrictions")
	text := string(data)
	assert.True(t, strings.Index(text, `"chemical_symbols"`) < strings.Index(text, `"sizes"`))
	assert.True(t, strings.Index(text, `"sizes"`) < strings.Index(text, `"structure"`))
	assert.Contains(t, text, "\n    \"sizes\"")

	require.NoError(t, h.Run(context.Background(), dir))
	C, err := h.Collection(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, C.Len())
	assert.Equal(t, 1, C.FrameSize())
	assert.Equal(t, []int{1, 2}, C.Size())
	assert.False(t, C.HasEnergies())

	out, err := os.ReadFile(filepath.Join(dir, DefaultOutput))
	require.NoError(t, err)
	assert.Contains(t, string(out), "Done")
}

func TestEnumerateTempDir(t *testing.T) {
	h := NewEnumerateHandle()
	h.SetCommand(fakeProgram(t, "genenum.sh", enumScript))
	C, err := h.Enumerate(context.Background(), prototype(t), [][]string{{"Au", "Pd"}}, []int{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"Au", "Pd"}, C.Elements())
}

func TestEnumerateFailures(t *testing.T) {
	h := NewEnumerateHandle()
	_, err := h.Enumerate(context.Background(), prototype(t), [][]string{{"Au"}, {"Pd"}}, []int{1})
	assert.ErrorIs(t, err, structset.ErrValidation)

	h.SetCommand(fakeProgram(t, "fail.sh", "exit 1\n"))
	_, err = h.Enumerate(context.Background(), prototype(t), [][]string{{"Au", "Pd"}}, []int{1})
	assert.ErrorIs(t, err, ErrNotRunning)

	h.SetCommand(fakeProgram(t, "lazy.sh", "printf '1\\n' > nframes.raw\n"))
	_, err = h.Enumerate(context.Background(), prototype(t), [][]string{{"Au", "Pd"}}, []int{1})
	assert.ErrorIs(t, err, structset.ErrIncompleteOutput)
}

const sqsScript = `cat > sqs.out <<END
{"structure": {"cell": [[4.08, 0, 0], [0, 4.08, 0], [0, 0, 4.08]],
  "positions": [[0, 0, 0], [2.04, 2.04, 0]],
  "atomic_numbers": [79, 46],
  "pbc": [true, true, true]},
 "cluster_vector": [1.0, 0.0, -0.333]}
END
`

func TestSQS(t *testing.T) {
	dir := t.TempDir()
	h := NewSQSHandle()
	h.SetCommand(fakeProgram(t, "gensqs.sh", sqsScript))
	P := SQSParams{
		Prototype:            prototype(t),
		ChemicalSymbols:      [][]string{{"Au", "Pd"}},
		TargetConcentrations: map[string]float64{"Au": 0.5, "Pd": 0.5},
		Cutoffs:              []float64{8, 6},
	}
	require.NoError(t, h.BuildInput(dir, P))
	var in sqsInput
	data, err := os.ReadFile(filepath.Join(dir, DefaultInput))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &in))
	assert.Equal(t, 16, in.MaxSize)
	assert.Equal(t, 10000, in.NSteps)
	assert.False(t, in.IncludeSmallerCells)

	require.NoError(t, h.Run(context.Background(), dir))
	S, cv, err := h.Result(dir)
	require.NoError(t, err)
	assert.Equal(t, "AuPd", S.Formula())
	assert.Equal(t, []float64{1, 0, -0.333}, cv)
	assert.Equal(t, 2.04, S.Coords.At(1, 1))

	require.NoError(t, os.WriteFile(filepath.Join(dir, SQSOutput), []byte("{not json"), 0o644))
	_, _, err = h.Result(dir)
	assert.ErrorIs(t, err, structset.ErrFormat)
	require.NoError(t, os.Remove(filepath.Join(dir, SQSOutput)))
	_, _, err = h.Result(dir)
	assert.ErrorIs(t, err, structset.ErrIncompleteOutput)

	P.Cutoffs = nil
	assert.ErrorIs(t, h.BuildInput(dir, P), structset.ErrValidation)
}

func disordered(t *testing.T) *DisorderedStructure {
	cell, err := v3.NewMatrix([]float64{4, 0, 0, 0, 4, 0, 0, 0, 4})
	require.NoError(t, err)
	return &DisorderedStructure{Cell: cell, Sites: []Site{
		{Position: [3]float64{0, 0, 0}, Occupants: []Occupant{{"Au", 0.5}, {"Pd", 0.25}}},
		{Position: [3]float64{2, 2, 2}, Occupants: []Occupant{{"Cu", 1}}},
	}}
}

func TestRndstr(t *testing.T) {
	lines := strings.Split(Rndstr(disordered(t)), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "1 1 1 90 90 90", lines[0])
	assert.Equal(t, "4.0000000000       0.0000000000       0.0000000000       ", lines[1])
	assert.True(t, strings.HasSuffix(lines[4], "Au=0.5, Pd=0.25, Vac=0.25"), lines[4])
	assert.True(t, strings.HasSuffix(lines[5], " Cu=1"), lines[5])
	assert.Equal(t, "", lines[6])

	cell, err := v3.NewMatrix([]float64{2, 0, 0, 0, 2, 0, 0, 0, 2})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(SQSCell(cell), "1\n\n2.0000000000 "))

	bad := disordered(t)
	bad.Sites[0].Occupants = append(bad.Sites[0].Occupants, Occupant{"Ag", 0.5})
	assert.ErrorIs(t, bad.Validate(), structset.ErrValidation)
}

const bestsqs = `2 0 0
0 2 0
0 0 2
1 0 0
0 1 0
0 0 2
0.000000 0.000000 0.000000 Au
0.500000 0.500000 0.500000 Pd
0.000000 0.000000 1.000000 Au
`

func TestParseMcsqs(t *testing.T) {
	S, err := ParseBestSQS(strings.NewReader(bestsqs))
	require.NoError(t, err)
	assert.Equal(t, "Au2Pd", S.Formula())
	assert.Equal(t, [3]float64{0, 0, 4}, S.Cell.Vec(2))
	assert.Equal(t, [3]float64{1, 1, 1}, S.Coords.Vec(1))
	assert.Equal(t, [3]float64{0, 0, 2}, S.Coords.Vec(2))

	_, err = ParseBestSQS(strings.NewReader("1 0 0\n0 1 0\n"))
	assert.ErrorIs(t, err, structset.ErrFormat)
	_, err = ParseBestSQS(strings.NewReader(bestsqs + "0 0 0 Xx\n"))
	assert.ErrorIs(t, err, structset.ErrFormat)

	v, err := ParseBestCorr(strings.NewReader("2 1.0 0.1 0.1 0\nObjective_function= -0.75\n"))
	require.NoError(t, err)
	assert.Equal(t, -0.75, v)
	v, err = ParseBestCorr(strings.NewReader("Objective_function= Perfect_match\n"))
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)
	_, err = ParseBestCorr(strings.NewReader("nothing\n"))
	assert.ErrorIs(t, err, structset.ErrFormat)
}

const corrdumpScript = `test -f rndstr.in || exit 2
test "$6" = "-l=rndstr.in" || exit 3
echo clusters > clusters.out
`

const mcsqsScript = `test -f clusters.out || exit 2
test -f sqscell.out || exit 3
cat > bestsqs.out <<END
` + bestsqs + `END
echo "Objective_function= Perfect_match" > bestcorr.out
exec sleep 10
`

func TestMcsqsRun(t *testing.T) {
	dir := t.TempDir()
	h := NewMcsqsHandle()
	h.SetCorrdump(fakeProgram(t, "corrdump.sh", corrdumpScript))
	h.SetCommand(fakeProgram(t, "mcsqs.sh", mcsqsScript))
	h.SetWallclock(300 * time.Millisecond)
	cell, err := v3.NewMatrix([]float64{2, 0, 0, 0, 2, 0, 0, 0, 2})
	require.NoError(t, err)
	require.NoError(t, h.BuildInput(dir, disordered(t), cell))
	start := time.Now()
	require.NoError(t, h.Run(context.Background(), dir))
	assert.Less(t, time.Since(start), 5*time.Second)
	S, obj, err := h.Result(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, S.Len())
	assert.Equal(t, 0.0, obj)

	//a deadline set by the caller is an error
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	h.SetWallclock(0)
	assert.ErrorIs(t, h.Run(ctx, dir), context.DeadlineExceeded)
}

func TestTrain(t *testing.T) {
	C, err := structset.Encode([]*structset.Structure{prototype(t), prototype(t)})
	require.NoError(t, err)
	h := NewTrainHandle()
	h.SetCutoffs([]float64{6})
	h.SetWorkDir(t.TempDir())
	h.SetCommand(fakeProgram(t, "train.sh", `test -f energies.raw || exit 4
grep -q '"fit_method": "lasso"' "$1" || exit 5
echo model > model.ce
`))
	_, err = h.Train(context.Background(), prototype(t), [][]string{{"Au", "Pd"}}, C)
	assert.ErrorIs(t, err, structset.ErrValidation)

	require.NoError(t, C.SetEnergies([]float64{-3.1, -3.2}))
	model, err := h.Train(context.Background(), prototype(t), [][]string{{"Au", "Pd"}}, C)
	require.NoError(t, err)
	assert.Equal(t, ModelFile, filepath.Base(model))
	assert.FileExists(t, model)
}
