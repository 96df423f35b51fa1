package batch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"VPNLogSift/internal/models"
)

type fakeSink struct {
	mu      sync.Mutex
	batches [][]models.SessionRecord
	err     error
}

func (f *fakeSink) InsertSessionBatch(_ context.Context, records []models.SessionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, append([]models.SessionRecord(nil), records...))
	return f.err
}

func (f *fakeSink) sizes() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int, 0, len(f.batches))
	for _, b := range f.batches {
		out = append(out, len(b))
	}
	return out
}

func record(id int) models.SessionRecord {
	return models.SessionRecord{RunID: "run", Bundle: "b.zip", Session: models.Session{SessionID: id}}
}

func TestBatcherFlushesBySizeAndOnClose(t *testing.T) {
	sink := &fakeSink{}
	in := make(chan models.SessionRecord)
	done := make(chan struct{})
	go func() {
		NewBatcher(2, time.Hour, zap.NewNop(), sink).Run(context.Background(), in)
		close(done)
	}()

	for i := 1; i <= 5; i++ {
		in <- record(i)
	}
	close(in)
	<-done

	assert.Equal(t, []int{2, 2, 1}, sink.sizes())
	assert.Equal(t, 5, sink.batches[2][0].Session.SessionID)
	assert.Equal(t, 1, sink.batches[0][0].Session.SessionID)
}

func TestBatcherFlushesByInterval(t *testing.T) {
	sink := &fakeSink{}
	in := make(chan models.SessionRecord)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go NewBatcher(100, 20*time.Millisecond, zap.NewNop(), sink).Run(ctx, in)

	in <- record(1)
	assert.Eventually(t, func() bool { return len(sink.sizes()) == 1 }, time.Second, 5*time.Millisecond)
}

func TestBatcherFlushesOnCancel(t *testing.T) {
	sink := &fakeSink{err: errors.New("clickhouse down")}
	in := make(chan models.SessionRecord, 1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewBatcher(100, time.Hour, zap.NewNop(), sink).Run(ctx, in)
		close(done)
	}()

	in <- record(1)
	assert.Eventually(t, func() bool { return len(in) == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, []int{1}, sink.sizes())
}

func TestBatcherDrainsBufferedOnCancel(t *testing.T) {
	sink := &fakeSink{}
	in := make(chan models.SessionRecord, 5)
	for i := 1; i <= 5; i++ {
		in <- record(i)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	NewBatcher(2, time.Hour, zap.NewNop(), sink).Run(ctx, in)

	assert.Equal(t, []int{2, 2, 1}, sink.sizes())
	assert.Empty(t, in)
}

func TestBatcherSend(t *testing.T) {
	records := []models.SessionRecord{record(1), record(2), record(3)}

	t.Run("chunks by batch size", func(t *testing.T) {
		sink := &fakeSink{}
		require.NoError(t, NewBatcher(2, time.Hour, zap.NewNop(), sink).Send(context.Background(), records))
		assert.Equal(t, []int{2, 1}, sink.sizes())
	})

	t.Run("sink error is returned", func(t *testing.T) {
		sink := &fakeSink{err: errors.New("clickhouse down")}
		err := NewBatcher(2, time.Hour, zap.NewNop(), sink).Send(context.Background(), records)
		assert.ErrorContains(t, err, "clickhouse down")
		assert.Equal(t, []int{2}, sink.sizes())
	})

	t.Run("nothing to send", func(t *testing.T) {
		sink := &fakeSink{}
		require.NoError(t, NewBatcher(2, time.Hour, zap.NewNop(), sink).Send(context.Background(), nil))
		assert.Empty(t, sink.sizes())
	})
}
