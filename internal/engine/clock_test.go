package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaxingx0718/ledstory/internal/chartir"
)

func TestClock_Sequence(t *testing.T) {
	c := NewClock()
	assert.Equal(t, int64(0), c.Current())

	for want := int64(1); want <= 3; want++ {
		assert.Equal(t, want, c.Next())
	}
	assert.Equal(t, int64(3), c.Current())
	assert.Equal(t, int64(3), c.Current(), "Current does not advance")
}

func TestClock_Concurrent(t *testing.T) {
	c := NewClock()
	const workers, each = 50, 100

	seqs := make(chan int64, workers*each)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < each; j++ {
				seqs <- c.Next()
			}
		}()
	}
	wg.Wait()
	close(seqs)

	seen := make(map[int64]bool, workers*each)
	for seq := range seqs {
		assert.False(t, seen[seq], "seq %d handed out twice", seq)
		seen[seq] = true
	}
	assert.Len(t, seen, workers*each)
}

func TestResumeClock(t *testing.T) {
	assert.Equal(t, int64(0), ResumeClock(nil).Current())

	trace := []Step{{Seq: 1}, {Seq: 2, Err: "INVALID_VALUE: off grid"}, {Seq: 3}}
	c := ResumeClock(trace)
	assert.Equal(t, int64(3), c.Current())
	assert.Equal(t, int64(4), c.Next())
}

func TestResumeClock_ContinuesSessionTrace(t *testing.T) {
	ctx := context.Background()

	first := newDecadeSession(t)
	_, err := first.Apply(ctx, Set("Year", chartir.Row{"year": 1970}))
	require.NoError(t, err)
	_, err = first.Apply(ctx, Set("Year", chartir.Row{"year": 1975}))
	require.Error(t, err, "off-grid year is rejected but still numbered")

	second := newDecadeSession(t, WithClock(ResumeClock(first.Trace())))
	v, err := second.Apply(ctx, Clear("Year"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), v.Seq)
}
