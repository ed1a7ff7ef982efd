package calc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmera/structset"
)

//energy is minus the number of atoms, read from the XYZ header.
const evalScript = `read n
echo "running"
echo "E = -$n"
`

func TestEvaluate(t *testing.T) {
	h := NewEvaluateHandle(fakeProgram(t, "eval.sh", evalScript))
	e, err := h.Evaluate(context.Background(), prototype(t))
	require.NoError(t, err)
	assert.Equal(t, -1.0, e)

	h = NewEvaluateHandle(fakeProgram(t, "bad.sh", "echo nothing\n"))
	_, err = h.Evaluate(context.Background(), prototype(t))
	assert.ErrorIs(t, err, structset.ErrFormat)

	h = NewEvaluateHandle(fakeProgram(t, "fail.sh", "exit 1\n"))
	_, err = h.Evaluate(context.Background(), prototype(t))
	assert.ErrorIs(t, err, ErrNotRunning)

	_, err = NewEvaluateHandle("").Evaluate(context.Background(), prototype(t))
	assert.ErrorIs(t, err, ErrNotRunning)
}

func TestParseEnergy(t *testing.T) {
	e, err := parseEnergy("a\n\n  total energy   -12.5 \n\n")
	require.NoError(t, err)
	assert.Equal(t, -12.5, e)
	_, err = parseEnergy("")
	assert.ErrorIs(t, err, structset.ErrIncompleteOutput)
}
