package stress

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chn0318/dashlog/vector"
)

type counters struct {
	a atomic.Int64
	b atomic.Int64
}

func TestRoundEngagesMix(t *testing.T) {
	h := New(4,
		Role[*counters]{Name: "a", Run: func(c *counters) error { c.a.Add(1); return nil }},
		Role[*counters]{Name: "b", Run: func(c *counters) error { c.b.Add(1); return nil }},
	)
	defer h.Close()
	require.Equal(t, 8, h.Workers())

	for _, mix := range []Mix{{"a": 1, "b": 4}, {"a": 3}, {}, {"a": 4, "b": 4}} {
		c := &counters{}
		require.NoError(t, h.Round(c, mix))
		assert.EqualValues(t, mix["a"], c.a.Load())
		assert.EqualValues(t, mix["b"], c.b.Load())
	}
}

func TestRoundCollectsViolations(t *testing.T) {
	boom := errors.New("boom")
	h := New(2, Role[int]{Name: "fail", Run: func(target int) error {
		if target < 0 {
			return boom
		}
		return nil
	}})

	err := h.Round(-1, Mix{"fail": 2})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "fail[1]")

	// Violations do not leak into the next round.
	assert.NoError(t, h.Round(1, Mix{"fail": 2}))

	require.NoError(t, h.Close())
	assert.Error(t, h.Round(1, Mix{"fail": 1}))
}

func TestParallel(t *testing.T) {
	var n atomic.Int64
	require.NoError(t, Parallel(5, func(i int) error {
		n.Add(int64(i))
		return nil
	}))
	assert.EqualValues(t, 10, n.Load())

	boom := errors.New("boom")
	assert.ErrorIs(t, Parallel(3, func(i int) error {
		if i == 2 {
			return boom
		}
		return nil
	}), boom)
}

func TestCheckShifted(t *testing.T) {
	assert.NoError(t, CheckShifted(vector.From(0, 1, 3, 0, 5), 1))
	assert.Error(t, CheckShifted(vector.From(0, 1, 4), 1))
	assert.Error(t, CheckShifted(vector.From(0, 2, 2), 1))
	assert.Error(t, CheckIdentity(vector.From(0, 2)))
}

func TestRunSerial(t *testing.T) {
	_, err := RunSerial(vector.New[int](), 3*vector.SegmentSize)
	require.NoError(t, err)
}
