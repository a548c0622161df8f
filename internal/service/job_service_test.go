package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeCompleter struct {
	calls atomic.Int32
	ids   []string
}

func (f *fakeCompleter) CompleteExpired() []string {
	f.calls.Add(1)
	return f.ids
}

func TestUpdateFinishedBookings(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	f := &fakeCompleter{}
	s := NewJobService(f, zap.New(core).Sugar())

	assert.Equal(t, 0, s.UpdateFinishedBookings())
	assert.Equal(t, 0, logs.Len())

	f.ids = []string{"b1", "b2"}
	assert.Equal(t, 2, s.UpdateFinishedBookings())
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, int64(2), logs.All()[0].ContextMap()["count"])
}

func TestJobServiceSchedule(t *testing.T) {
	f := &fakeCompleter{}
	s := NewJobService(f, nil)

	require.Error(t, s.Schedule("not a schedule"))
	require.NoError(t, s.Schedule("@every 1s"))

	s.Start()
	assert.Eventually(t, func() bool { return f.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
