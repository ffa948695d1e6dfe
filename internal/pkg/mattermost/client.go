package mattermost

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"matterlab/pkg/constants"
)

// Post 消息
type Post struct {
	ID        string `json:"id,omitempty"`
	ChannelID string `json:"channel_id"`
	Message   string `json:"message"`
	RootID    string `json:"root_id,omitempty"`
}

// APIError Mattermost 返回的非 2xx 响应
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mattermost 请求失败 (状态码: %d): %s", e.StatusCode, e.Body)
}

// IsUnauthorized 机器人令牌无效
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// IsPermanent 重试也不会成功的请求，如频道已删除或机器人不在频道内
func IsPermanent(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.StatusCode {
	case http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound:
		return true
	}
	return false
}

// Client Mattermost REST v4 客户端
type Client interface {
	CreatePost(ctx context.Context, token string, post Post) (*Post, error)
}

type client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient 创建Mattermost客户端
func NewClient(host string, timeout time.Duration) (Client, error) {
	if host == "" {
		return nil, fmt.Errorf("Mattermost 地址不能为空")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &client{
		baseURL:    strings.TrimSuffix(host, "/") + "/api/v4",
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// CreatePost 以机器人身份发送消息
func (c *client) CreatePost(ctx context.Context, token string, post Post) (*Post, error) {
	payload, err := json.Marshal(post)
	if err != nil {
		return nil, fmt.Errorf("序列化消息失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/posts", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set(constants.HeaderAuthorization, constants.HeaderBearerPrefix+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求 mattermost 失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var created Post
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("解析 mattermost 响应失败: %w", err)
	}
	return &created, nil
}
