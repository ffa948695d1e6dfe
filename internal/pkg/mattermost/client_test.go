package mattermost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v4/posts", r.URL.Path)
		assert.Equal(t, "Bearer bot-token", r.Header.Get("Authorization"))

		var post Post
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&post))
		assert.Equal(t, "chan-1", post.ChannelID)
		assert.Equal(t, "root-1", post.RootID)

		post.ID = "post-1"
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(post)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL+"/", time.Second)
	require.NoError(t, err)

	created, err := c.CreatePost(context.Background(), "bot-token", Post{ChannelID: "chan-1", Message: "hi", RootID: "root-1"})
	require.NoError(t, err)
	assert.Equal(t, "post-1", created.ID)
}

func TestCreatePostError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"id":"api.context.session_expired.app_error"}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, 0)
	require.NoError(t, err)

	_, err = c.CreatePost(context.Background(), "expired", Post{ChannelID: "c", Message: "m"})
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Contains(t, err.Error(), "session_expired")
}

func TestIsPermanent(t *testing.T) {
	assert.True(t, IsPermanent(&APIError{StatusCode: http.StatusNotFound}))
	assert.True(t, IsPermanent(fmt.Errorf("wrapped: %w", &APIError{StatusCode: http.StatusForbidden})))
	assert.False(t, IsPermanent(&APIError{StatusCode: http.StatusUnauthorized}))
	assert.False(t, IsPermanent(&APIError{StatusCode: http.StatusBadGateway}))
	assert.False(t, IsPermanent(errors.New("dial tcp: timeout")))
}
