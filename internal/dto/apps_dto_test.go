package dto

import (
	"encoding/json"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextUserLocation(t *testing.T) {
	var nilUser *ContextUser
	assert.Equal(t, time.UTC, nilUser.Location())
	assert.Equal(t, time.UTC, (&ContextUser{}).Location())

	manual := &ContextUser{Timezone: map[string]string{
		"useAutomaticTimezone": "false",
		"manualTimezone":       "Europe/Moscow",
		"automaticTimezone":    "Asia/Shanghai",
	}}
	assert.Equal(t, "Europe/Moscow", manual.Location().String())

	auto := &ContextUser{Timezone: map[string]string{
		"useAutomaticTimezone": "true",
		"manualTimezone":       "Europe/Moscow",
		"automaticTimezone":    "Asia/Shanghai",
	}}
	assert.Equal(t, "Asia/Shanghai", auto.Location().String())

	bad := &ContextUser{Timezone: map[string]string{"manualTimezone": "Mars/Olympus"}}
	assert.Equal(t, time.UTC, bad.Location())
}

func TestThreadRootID(t *testing.T) {
	assert.Equal(t, "p1", (&ContextPost{ID: "p1"}).ThreadRootID())
	assert.Equal(t, "root", (&ContextPost{ID: "p2", RootID: "root"}).ThreadRootID())
}

func TestCallRequestDecode(t *testing.T) {
	body := `{
		"path": "/connect_gitlab_complete",
		"context": {
			"app_id": "matterlab",
			"bot_user_id": "bot-1",
			"bot_access_token": "tok",
			"acting_user": {"id": "u1", "username": "jdoe", "timezone": {"useAutomaticTimezone": "true", "automaticTimezone": "UTC"}},
			"channel": {"id": "ch1", "display_name": "Town Square"}
		},
		"values": {"access_token": "glpat", "repo": {"label": "team/app", "value": "10"}}
	}`

	var req CallRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	assert.Equal(t, "bot-1", req.Context.BotUserID)
	assert.Equal(t, "jdoe", req.Context.ActingUser.Username)
	assert.Equal(t, "Town Square", req.Context.Channel.DisplayName)
	assert.Nil(t, req.Context.Post)
	require.NotNil(t, req.Values.Repo)
	assert.Equal(t, "10", req.Values.Repo.Value)
	assert.Nil(t, req.Values.Interval)
}
