package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/driveease/service-rental/internal/application"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type countingSender struct {
	calls int
	err   error
}

func (s *countingSender) SendDueReminders(ctx context.Context) (*application.ReminderSummary, error) {
	s.calls++
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("sweep has no deadline")
	}
	return &application.ReminderSummary{}, s.err
}

func TestNew_RejectsBadSpec(t *testing.T) {
	_, err := New("every morning", time.UTC, &countingSender{}, zap.NewNop())
	assert.Error(t, err)
}

func TestRunReminders(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	sender := &countingSender{}
	s, err := New("0 7 * * *", time.UTC, sender, zap.New(core))
	require.NoError(t, err)

	s.runReminders()
	assert.Equal(t, 1, sender.calls)
	assert.Zero(t, logs.FilterMessage("scheduled reminder sweep failed").Len())

	sender.err = errors.New("db down")
	s.runReminders()
	assert.Equal(t, 1, logs.FilterMessage("scheduled reminder sweep failed").Len())
}

func TestStartStop(t *testing.T) {
	s, err := New("@every 1h", time.UTC, &countingSender{}, zap.NewNop())
	require.NoError(t, err)
	s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
	assert.NoError(t, ctx.Err())
}
