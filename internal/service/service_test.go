package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"matterlab/internal/adapter/notification"
	"matterlab/internal/dto"
	"matterlab/internal/model"
	"matterlab/internal/pkg/config"
	"matterlab/internal/pkg/database"
	"matterlab/internal/pkg/gitlab"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open(&config.DatabaseConfig{
		Driver:   "sqlite",
		Database: fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name),
	})
	require.NoError(t, err)
	require.NoError(t, model.AutoMigrate(db))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})
	return db
}

func strPtr(s string) *string { return &s }

// fakeNotifier 记录发送的消息，failChannels 中的频道返回 failErr（默认普通错误）
type fakeNotifier struct {
	mu           sync.Mutex
	failChannels map[string]bool
	failErr      error
	attempts     int
	tokens       []string
	sent         []notification.NotificationMessage
}

func (n *fakeNotifier) Send(_ context.Context, token string, msg *notification.NotificationMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.attempts++
	if n.failChannels[msg.ChannelID] {
		if n.failErr != nil {
			return fmt.Errorf("发送到频道 %s 失败: %w", msg.ChannelID, n.failErr)
		}
		return errors.New("channel not found")
	}
	n.tokens = append(n.tokens, token)
	n.sent = append(n.sent, *msg)
	return nil
}

func (n *fakeNotifier) channels() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.sent))
	for _, m := range n.sent {
		out = append(out, m.ChannelID)
	}
	return out
}

// fakeGitlab 内存版 GitLab，hooks 按项目保存已创建的 webhook
type fakeGitlab struct {
	mu       sync.Mutex
	user     *gitlab.User
	userErr  error
	projects []gitlab.Project
	listErr  error
	hooks    map[int64][]gitlab.Hook
	created  []gitlab.CreateHookOptions
}

func (g *fakeGitlab) GetCurrentUser(_ context.Context, _ string) (*gitlab.User, error) {
	if g.userErr != nil {
		return nil, g.userErr
	}
	return g.user, nil
}

func (g *fakeGitlab) ListProjects(_ context.Context, _ string) ([]gitlab.Project, error) {
	if g.listErr != nil {
		return nil, g.listErr
	}
	return g.projects, nil
}

func (g *fakeGitlab) GetProject(_ context.Context, _ string, projectID int64) (*gitlab.Project, error) {
	for i := range g.projects {
		if g.projects[i].ID == projectID {
			p := g.projects[i]
			return &p, nil
		}
	}
	return nil, &gitlab.APIError{Method: "GET", Path: fmt.Sprintf("/projects/%d", projectID), StatusCode: 404}
}

func (g *fakeGitlab) ListHooks(_ context.Context, _ string, projectID int64) ([]gitlab.Hook, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.hooks[projectID], nil
}

func (g *fakeGitlab) CreateHook(_ context.Context, _ string, projectID int64, opts gitlab.CreateHookOptions) (*gitlab.Hook, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.hooks == nil {
		g.hooks = map[int64][]gitlab.Hook{}
	}
	hook := gitlab.Hook{
		ID:             int64(len(g.created) + 1),
		URL:            opts.URL,
		PipelineEvents: opts.PipelineEvents,
		PushEvents:     opts.PushEvents,
	}
	g.hooks[projectID] = append(g.hooks[projectID], hook)
	g.created = append(g.created, opts)
	return &hook, nil
}

func samplePipeline(status string, builds ...dto.PipelineBuild) *dto.PipelineWebhook {
	if builds == nil {
		builds = []dto.PipelineBuild{}
	}
	w := &dto.PipelineWebhook{
		ObjectKind: "pipeline",
		Builds:     builds,
		ObjectAttributes: dto.PipelineAttributes{
			ID:     1001,
			IID:    42,
			Ref:    "main",
			Source: "push",
			Status: status,
			URL:    "https://gitlab.example.com/team/demo-app/-/pipelines/1001",
		},
		User: dto.WebhookUser{
			ID:        5,
			Name:      "Jane Doe",
			Username:  "jdoe",
			AvatarURL: "https://gitlab.example.com/uploads/jdoe.png",
			Email:     strPtr("[REDACTED]"),
		},
		Project: dto.WebhookProject{
			ID:                10,
			Name:              "demo-app",
			WebURL:            "https://gitlab.example.com/team/demo-app",
			PathWithNamespace: strPtr("team/demo-app"),
		},
		Commit: dto.WebhookCommit{
			ID:    "abc123",
			Title: "Fix login [urgent]",
			URL:   "https://gitlab.example.com/team/demo-app/-/commit/abc123",
		},
	}
	w.Normalize()
	return w
}
