package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RecordAndSnapshot(t *testing.T) {
	reg := NewRegistry()

	reg.RecordDuration("musify.playback.time_to_play", "start", 100*time.Millisecond)
	reg.RecordDuration("musify.playback.time_to_play", "start", 300*time.Millisecond)
	reg.RecordDuration("musify.playback.time_to_play", "next", 50*time.Millisecond)

	snap := reg.Snapshot()
	require.Len(t, snap, 2)

	start := snap["musify.playback.time_to_play:start"]
	assert.Equal(t, int64(2), start.Count)
	assert.Equal(t, int64(200), start.AvgMs)
	assert.Equal(t, int64(300), start.MaxMs)

	next := snap["musify.playback.time_to_play:next"]
	assert.Equal(t, int64(1), next.Count)
	assert.Equal(t, int64(50), next.AvgMs)
}

func TestRegistry_SnapshotIsCopy(t *testing.T) {
	reg := NewRegistry()
	reg.RecordDuration("m", "t", time.Millisecond)

	snap := reg.Snapshot()
	snap["m:t"] = Stat{Count: 99}

	again := reg.Snapshot()
	assert.Equal(t, int64(1), again["m:t"].Count)
}

func TestRegistry_ConcurrentRecords(t *testing.T) {
	reg := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				reg.RecordDuration("m", "t", time.Millisecond)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1000), reg.Snapshot()["m:t"].Count)
}
