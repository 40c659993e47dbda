package vector_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chn0318/dashlog/internal/stress"
)

func TestStressMixes(t *testing.T) {
	threads, loop := 8, 8*1024
	if testing.Short() {
		threads, loop = 4, 2*1024
	}

	h := stress.NewVectorHarness(threads, loop)
	defer h.Close()

	for readers := 1; readers <= threads; readers <<= 1 {
		for writers := 1; writers <= threads; writers <<= 1 {
			t.Run(fmt.Sprintf("r%d_w%d", readers, writers), func(t *testing.T) {
				tm, err := stress.RunVectorRound(h, readers, writers, loop)
				require.NoError(t, err)
				require.GreaterOrEqual(t, tm.Elements, loop-writers)
			})
		}
	}
}
