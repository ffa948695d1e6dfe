package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"matterlab/internal/dto"
	"matterlab/internal/pkg/config"
	"matterlab/internal/service"
)

type fakeReminderService struct {
	mu    sync.Mutex
	calls []time.Time
}

func (f *fakeReminderService) RefreshForm(*dto.CallRequest) *dto.Form { return nil }

func (f *fakeReminderService) Create(context.Context, *dto.CallRequest) (time.Time, error) {
	return time.Time{}, nil
}

func (f *fakeReminderService) DispatchDue(_ context.Context, now time.Time) (*service.DispatchReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, now)
	return &service.DispatchReport{}, nil
}

func (f *fakeReminderService) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestStartRegistersReminderJob(t *testing.T) {
	svc := &fakeReminderService{}
	s := NewScheduler(svc, zap.NewNop())

	require.NoError(t, s.Start(&config.SchedulerConfig{ReminderCron: "* * * * * *"}))
	entry := s.Entry(jobReminderDispatch)
	assert.NotZero(t, entry.ID)

	assert.Eventually(t, func() bool { return svc.count() > 0 }, 3*time.Second, 50*time.Millisecond)
	s.Stop()
}

func TestStartDefaultsCron(t *testing.T) {
	s := NewScheduler(&fakeReminderService{}, zap.NewNop())
	require.NoError(t, s.Start(&config.SchedulerConfig{}))
	defer s.Stop()

	assert.NotZero(t, s.Entry(jobReminderDispatch).ID)
	assert.Zero(t, s.Entry("unknown").ID)
}

func TestStartInvalidCron(t *testing.T) {
	s := NewScheduler(&fakeReminderService{}, zap.NewNop())
	assert.Error(t, s.Start(&config.SchedulerConfig{ReminderCron: "not a cron"}))
}

func TestTriggerReminderDispatch(t *testing.T) {
	svc := &fakeReminderService{}
	s := NewScheduler(svc, zap.NewNop())
	fixed := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	_, err := s.TriggerReminderDispatch(context.Background())
	require.NoError(t, err)
	require.Len(t, svc.calls, 1)
	assert.Equal(t, fixed, svc.calls[0])
}
