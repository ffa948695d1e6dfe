package service

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matterlab/internal/dto"
	"matterlab/internal/model"
	"matterlab/internal/pkg/mattermost"
	"matterlab/internal/repository"
	pkgErrors "matterlab/pkg/errors"
)

var fixedNow = time.Date(2030, 6, 1, 8, 0, 0, 0, time.UTC)

type reminderFixture struct {
	reminders repository.ReminderRepository
	bots      repository.BotRepository
	notifier  *fakeNotifier
	svc       *reminderService
}

func newReminderFixture(t *testing.T) *reminderFixture {
	db := newTestDB(t)
	f := &reminderFixture{
		reminders: repository.NewReminderRepository(db),
		bots:      repository.NewBotRepository(db),
		notifier:  &fakeNotifier{failChannels: map[string]bool{}},
	}
	f.svc = NewReminderService(f.reminders, f.bots, f.notifier).(*reminderService)
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func reminderRequest(interval, datetime string) *dto.CallRequest {
	return &dto.CallRequest{
		Context: dto.CallContext{
			ActingUser: &dto.ContextUser{
				ID:       "u1",
				Username: "jdoe",
				Timezone: map[string]string{"useAutomaticTimezone": "false", "manualTimezone": "Asia/Shanghai"},
			},
			Channel: &dto.ContextChannel{ID: "ch1"},
			Post:    &dto.ContextPost{ID: "p2", ChannelID: "ch1", RootID: "p1", Message: "please review MR !12\nsecond line"},
		},
		Values: dto.CallValues{
			Interval: &dto.SelectOption{Value: interval},
			Datetime: datetime,
		},
	}
}

func TestResolveRemindAt(t *testing.T) {
	now := fixedNow

	at, err := ResolveRemindAt(&dto.SelectOption{Value: "15m"}, "", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(15*time.Minute), at)

	at, err = ResolveRemindAt(&dto.SelectOption{Value: "4h"}, "", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(4*time.Hour), at)

	at, err = ResolveRemindAt(&dto.SelectOption{Value: "custom"}, " 02.06.2030 09:30 ", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2030, 6, 2, 9, 30, 0, 0, time.UTC), at)

	_, err = ResolveRemindAt(&dto.SelectOption{Value: "custom"}, "01.06.2030 07:59", now)
	assert.ErrorIs(t, err, pkgErrors.ErrDatetimeInPast)

	_, err = ResolveRemindAt(&dto.SelectOption{Value: "custom"}, "2030-06-02 09:30", now)
	assert.Equal(t, pkgErrors.CodeBadRequest, pkgErrors.CodeOf(err))

	_, err = ResolveRemindAt(&dto.SelectOption{Value: "3d"}, "", now)
	assert.ErrorIs(t, err, pkgErrors.ErrInvalidInterval)

	_, err = ResolveRemindAt(nil, "", now)
	assert.ErrorIs(t, err, pkgErrors.ErrInvalidInterval)
}

func TestRefreshForm(t *testing.T) {
	f := newReminderFixture(t)

	form := f.svc.RefreshForm(&dto.CallRequest{})
	require.Len(t, form.Fields, 1)
	assert.Nil(t, form.Fields[0].Value)

	form = f.svc.RefreshForm(reminderRequest("1h", ""))
	require.Len(t, form.Fields, 1)
	assert.Equal(t, dto.SelectOption{Value: "1h"}, form.Fields[0].Value)

	form = f.svc.RefreshForm(reminderRequest("custom", ""))
	require.Len(t, form.Fields, 2)
	assert.Equal(t, "datetime", form.Fields[1].Name)
	assert.True(t, form.Fields[1].IsRequired)
}

func TestCreateReminderUsesUserTimezone(t *testing.T) {
	f := newReminderFixture(t)
	ctx := context.Background()

	// 上海时间 2030-06-01 18:00 即 UTC 10:00
	at, err := f.svc.Create(ctx, reminderRequest("custom", "01.06.2030 18:00"))
	require.NoError(t, err)
	assert.Equal(t, "Asia/Shanghai", at.Location().String())
	assert.True(t, at.Equal(time.Date(2030, 6, 1, 10, 0, 0, 0, time.UTC)))

	due, err := f.reminders.ListDue(ctx, time.Date(2030, 6, 1, 10, 0, 0, 0, time.UTC), 0)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "p1", due[0].PostID)
	assert.Equal(t, "ch1", due[0].ChannelID)
	assert.Equal(t, "please review MR !12", due[0].Ext["excerpt"])

	// 上海时间 15:00 早于当前时间
	_, err = f.svc.Create(ctx, reminderRequest("custom", "01.06.2030 15:00"))
	assert.ErrorIs(t, err, pkgErrors.ErrDatetimeInPast)
}

func TestCreateReminderValidation(t *testing.T) {
	f := newReminderFixture(t)
	ctx := context.Background()

	req := reminderRequest("15m", "")
	req.Context.Post = nil
	_, err := f.svc.Create(ctx, req)
	assert.ErrorIs(t, err, pkgErrors.ErrMissingPost)

	req = reminderRequest("15m", "")
	req.Context.ActingUser = nil
	_, err = f.svc.Create(ctx, req)
	assert.ErrorIs(t, err, pkgErrors.ErrMissingActingUser)

	req = reminderRequest("", "")
	_, err = f.svc.Create(ctx, req)
	assert.ErrorIs(t, err, pkgErrors.ErrInvalidInterval)
}

func TestDispatchDue(t *testing.T) {
	f := newReminderFixture(t)
	ctx := context.Background()
	_, err := f.bots.Upsert(ctx, "bot-1", model.BotPatch{AccessToken: "bot-token"})
	require.NoError(t, err)

	for _, ch := range []string{"ch-ok", "ch-gone"} {
		require.NoError(t, f.reminders.Create(ctx, &model.Reminder{
			UserID:    "u1",
			Username:  "jdoe",
			ChannelID: ch,
			PostID:    "root-" + ch,
			RemindAt:  fixedNow.Add(-time.Minute),
		}))
	}
	require.NoError(t, f.reminders.Create(ctx, &model.Reminder{
		UserID: "u1", Username: "jdoe", ChannelID: "ch-ok", PostID: "later", RemindAt: fixedNow.Add(time.Hour),
	}))
	f.notifier.failChannels["ch-gone"] = true

	report, err := f.svc.DispatchDue(ctx, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, DispatchReport{Due: 2, Sent: 1, Failed: 1}, *report)

	require.Len(t, f.notifier.sent, 1)
	msg := f.notifier.sent[0]
	assert.Equal(t, "ch-ok", msg.ChannelID)
	assert.Equal(t, "root-ch-ok", msg.RootID)
	assert.Contains(t, msg.Message, "@jdoe")

	// 发送失败的提醒下一轮重试
	due, err := f.reminders.ListDue(ctx, fixedNow, 0)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "ch-gone", due[0].ChannelID)
}

func TestDispatchDueDoesNotStallOnFailingReminders(t *testing.T) {
	f := newReminderFixture(t)
	ctx := context.Background()
	_, err := f.bots.Upsert(ctx, "bot-1", model.BotPatch{AccessToken: "bot-token"})
	require.NoError(t, err)

	// 一整批以上的提醒排在前面且一直发送失败
	for i := 0; i < dispatchBatchSize+5; i++ {
		require.NoError(t, f.reminders.Create(ctx, &model.Reminder{
			UserID: "u1", Username: "jdoe", ChannelID: "ch-flaky", PostID: "p", RemindAt: fixedNow.Add(-2 * time.Minute),
		}))
	}
	require.NoError(t, f.reminders.Create(ctx, &model.Reminder{
		UserID: "u1", Username: "jdoe", ChannelID: "ch-ok", PostID: "healthy", RemindAt: fixedNow.Add(-time.Minute),
	}))
	f.notifier.failChannels["ch-flaky"] = true

	report, err := f.svc.DispatchDue(ctx, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, dispatchBatchSize, report.Failed)
	assert.Zero(t, report.GaveUp)

	report, err = f.svc.DispatchDue(ctx, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Sent)
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "healthy", f.notifier.sent[0].RootID)

	// 达到最大次数后不再重试
	for i := 0; i < model.ReminderMaxAttempts; i++ {
		_, err = f.svc.DispatchDue(ctx, fixedNow)
		require.NoError(t, err)
	}
	due, err := f.reminders.ListDue(ctx, fixedNow, 0)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestDispatchDueGivesUpOnPermanentError(t *testing.T) {
	f := newReminderFixture(t)
	ctx := context.Background()
	_, err := f.bots.Upsert(ctx, "bot-1", model.BotPatch{AccessToken: "bot-token"})
	require.NoError(t, err)
	require.NoError(t, f.reminders.Create(ctx, &model.Reminder{
		UserID: "u1", Username: "jdoe", ChannelID: "ch-gone", PostID: "p1", RemindAt: fixedNow,
	}))
	f.notifier.failChannels["ch-gone"] = true
	f.notifier.failErr = &mattermost.APIError{StatusCode: 404, Body: "channel not found"}

	report, err := f.svc.DispatchDue(ctx, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, DispatchReport{Due: 1, Failed: 1, GaveUp: 1}, *report)

	due, err := f.reminders.ListDue(ctx, fixedNow, 0)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestDispatchDueStopsOnInvalidBotToken(t *testing.T) {
	f := newReminderFixture(t)
	ctx := context.Background()
	_, err := f.bots.Upsert(ctx, "bot-1", model.BotPatch{AccessToken: "revoked"})
	require.NoError(t, err)
	for _, post := range []string{"p1", "p2"} {
		require.NoError(t, f.reminders.Create(ctx, &model.Reminder{
			UserID: "u1", Username: "jdoe", ChannelID: "ch1", PostID: post, RemindAt: fixedNow,
		}))
	}
	f.notifier.failChannels["ch1"] = true
	f.notifier.failErr = &mattermost.APIError{StatusCode: 401, Body: "invalid token"}

	report, err := f.svc.DispatchDue(ctx, fixedNow)
	assert.Equal(t, pkgErrors.CodeUpstreamError, pkgErrors.CodeOf(err))
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, f.notifier.attempts)

	// 令牌问题不计入重试次数
	due, err := f.reminders.ListDue(ctx, fixedNow, 0)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Zero(t, due[0].Attempts)
}

func TestDispatchDueWithoutBot(t *testing.T) {
	f := newReminderFixture(t)
	ctx := context.Background()

	report, err := f.svc.DispatchDue(ctx, fixedNow)
	require.NoError(t, err)
	assert.Zero(t, report.Due)

	require.NoError(t, f.reminders.Create(ctx, &model.Reminder{
		UserID: "u1", Username: "jdoe", ChannelID: "ch1", PostID: "p1", RemindAt: fixedNow,
	}))
	_, err = f.svc.DispatchDue(ctx, fixedNow)
	assert.ErrorIs(t, err, pkgErrors.ErrBotNotConfigured)

	due, err := f.reminders.ListDue(ctx, fixedNow, 0)
	require.NoError(t, err)
	assert.Len(t, due, 1)
}

func TestReminderMessage(t *testing.T) {
	r := &model.Reminder{Username: "jdoe", Ext: map[string]interface{}{"excerpt": "ship it"}}
	assert.Equal(t, "@jdoe 提醒你查看这条消息\n> ship it", ReminderMessage(r))

	assert.Equal(t, "提醒你查看这条消息", ReminderMessage(&model.Reminder{}))
}
