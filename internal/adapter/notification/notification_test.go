package notification

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"matterlab/internal/pkg/config"
	"matterlab/internal/pkg/mattermost"
)

type fakeClient struct {
	posts []mattermost.Post
	err   error
}

func (f *fakeClient) CreatePost(_ context.Context, token string, post mattermost.Post) (*mattermost.Post, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.posts = append(f.posts, post)
	post.ID = "p1"
	return &post, nil
}

func TestMattermostNotifier(t *testing.T) {
	client := &fakeClient{}
	n := NewMattermostNotifier(client, zap.NewNop())

	err := n.Send(context.Background(), "tok", &NotificationMessage{Type: NotifyReminder, ChannelID: "c1", Message: "hi", RootID: "r1"})
	require.NoError(t, err)
	require.Len(t, client.posts, 1)
	assert.Equal(t, "r1", client.posts[0].RootID)

	assert.Error(t, n.Send(context.Background(), "", &NotificationMessage{ChannelID: "c1"}))
}

func TestMultiNotifierContinuesOnError(t *testing.T) {
	failing := NewMattermostNotifier(&fakeClient{err: errors.New("boom")}, zap.NewNop())
	core, logs := observer.New(zapcore.InfoLevel)
	logNotifier := NewLogNotifier(zap.New(core))

	m := NewMultiNotifier(zap.NewNop(), failing, logNotifier)
	err := m.Send(context.Background(), "tok", &NotificationMessage{Type: NotifyPipeline, ChannelID: "c1", Message: "m"})

	assert.ErrorContains(t, err, "boom")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "c1", logs.All()[0].ContextMap()["channel_id"])
}

func TestNewNotifierDisabled(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	n, err := NewNotifier(&config.MattermostConfig{Enabled: false}, zap.New(core))
	require.NoError(t, err)
	assert.IsType(t, &LogNotifier{}, n)

	require.NoError(t, n.Send(context.Background(), "", &NotificationMessage{Type: NotifyPipeline, ChannelID: "c1", Message: "m"}))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "m", logs.All()[0].ContextMap()["message"])
}

func TestNewNotifierRequiresHost(t *testing.T) {
	_, err := NewNotifier(&config.MattermostConfig{Enabled: true}, zap.NewNop())
	assert.Error(t, err)
}

func TestNewNotifierMirrorsToLog(t *testing.T) {
	var posted atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posted.Add(1)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"p1","channel_id":"c1"}`))
	}))
	defer srv.Close()

	core, logs := observer.New(zapcore.InfoLevel)
	cfg := &config.MattermostConfig{Enabled: true, Host: srv.URL, Timeout: time.Second}

	n, err := NewNotifier(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &MattermostNotifier{}, n)

	cfg.LogMessages = true
	n, err = NewNotifier(cfg, zap.New(core))
	require.NoError(t, err)
	assert.IsType(t, &MultiNotifier{}, n)

	require.NoError(t, n.Send(context.Background(), "tok", &NotificationMessage{Type: NotifyPipeline, ChannelID: "c1", Message: "m"}))
	assert.Equal(t, int32(1), posted.Load())
	assert.Equal(t, 1, logs.FilterMessage("通知").Len())
}
