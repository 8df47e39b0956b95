package jobs

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type rebuilderFunc func(ctx context.Context) error

func (f rebuilderFunc) RebuildIndex(ctx context.Context) error { return f(ctx) }

func newTestScheduler() (*Scheduler, *bytes.Buffer) {
	logger := logrus.New()
	buf := &bytes.Buffer{}
	logger.SetOutput(buf) // Отключаем вывод логов в тестах
	return NewScheduler(logger), buf
}

func TestScheduleIndexResync_InvalidSchedule(t *testing.T) {
	s, _ := newTestScheduler()

	err := s.ScheduleIndexResync("not a schedule", rebuilderFunc(func(context.Context) error { return nil }), time.Second)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a schedule")
}

func TestResyncIndex_PassesDeadline(t *testing.T) {
	s, _ := newTestScheduler()
	var hasDeadline bool

	s.resyncIndex(rebuilderFunc(func(ctx context.Context) error {
		_, hasDeadline = ctx.Deadline()
		return nil
	}), time.Minute)

	assert.True(t, hasDeadline)
}

func TestResyncIndex_LogsFailure(t *testing.T) {
	s, buf := newTestScheduler()

	s.resyncIndex(rebuilderFunc(func(context.Context) error {
		return errors.New("db down")
	}), time.Second)

	assert.Contains(t, buf.String(), "Scheduled index resync failed")
	assert.Contains(t, buf.String(), "db down")
}

func TestScheduler_RunsScheduledResync(t *testing.T) {
	s, _ := newTestScheduler()
	var calls atomic.Int32
	done := make(chan struct{}, 1)

	err := s.ScheduleIndexResync("@every 1s", rebuilderFunc(func(context.Context) error {
		if calls.Add(1) == 1 {
			done <- struct{}{}
		}
		return nil
	}), time.Second)
	require.NoError(t, err)

	s.Start()
	defer s.Stop()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("index resync did not run")
	}
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}
