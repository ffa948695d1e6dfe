package gitlab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"matterlab/pkg/constants"
)

const (
	defaultPerPage     = 100
	defaultPageTimeout = 10 * time.Second
	maxErrorBody       = 4096
)

// Client GitLab REST v4 客户端
type Client interface {
	GetCurrentUser(ctx context.Context, token string) (*User, error)
	ListProjects(ctx context.Context, token string) ([]Project, error)
	GetProject(ctx context.Context, token string, projectID int64) (*Project, error)
	ListHooks(ctx context.Context, token string, projectID int64) ([]Hook, error)
	CreateHook(ctx context.Context, token string, projectID int64, opts CreateHookOptions) (*Hook, error)
}

// Option 客户端选项
type Option func(*client)

// WithHTTPClient 替换底层 http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) { c.httpClient = hc }
}

// WithPerPage 设置分页大小
func WithPerPage(n int) Option {
	return func(c *client) {
		if n > 0 {
			c.perPage = n
		}
	}
}

type client struct {
	baseURL     string
	httpClient  *http.Client
	pageTimeout time.Duration
	perPage     int
}

// NewClient 创建GitLab客户端
func NewClient(baseURL string, pageTimeout time.Duration, opts ...Option) (Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("BaseURL不能为空")
	}
	if pageTimeout <= 0 {
		pageTimeout = defaultPageTimeout
	}

	c := &client{
		baseURL:     strings.TrimSuffix(baseURL, "/") + "/api/v4",
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		pageTimeout: pageTimeout,
		perPage:     defaultPerPage,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetCurrentUser 获取令牌对应的用户，用于校验令牌
func (c *client) GetCurrentUser(ctx context.Context, token string) (*User, error) {
	var user User
	if err := c.do(ctx, token, http.MethodGet, "/user", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListProjects 获取用户可见的全部项目，逐页请求直到某页不满
func (c *client) ListProjects(ctx context.Context, token string) ([]Project, error) {
	var all []Project
	for page := 1; ; page++ {
		items, err := c.listProjectsPage(ctx, token, page)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if len(items) < c.perPage {
			return all, nil
		}
	}
}

func (c *client) listProjectsPage(ctx context.Context, token string, page int) ([]Project, error) {
	ctx, cancel := context.WithTimeout(ctx, c.pageTimeout)
	defer cancel()

	query := url.Values{}
	query.Set("archived", "false")
	query.Set("membership", "true")
	query.Set("simple", "true")
	query.Set("order_by", "path")
	query.Set("sort", "asc")
	query.Set("per_page", strconv.Itoa(c.perPage))
	query.Set("page", strconv.Itoa(page))

	var items []Project
	if err := c.do(ctx, token, http.MethodGet, "/projects", query, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// GetProject 获取项目详情
func (c *client) GetProject(ctx context.Context, token string, projectID int64) (*Project, error) {
	var project Project
	path := fmt.Sprintf("/projects/%d", projectID)
	if err := c.do(ctx, token, http.MethodGet, path, nil, nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// ListHooks 获取项目已注册的 webhook
func (c *client) ListHooks(ctx context.Context, token string, projectID int64) ([]Hook, error) {
	var hooks []Hook
	path := fmt.Sprintf("/projects/%d/hooks", projectID)
	if err := c.do(ctx, token, http.MethodGet, path, nil, nil, &hooks); err != nil {
		return nil, err
	}
	return hooks, nil
}

// CreateHook 注册 webhook
func (c *client) CreateHook(ctx context.Context, token string, projectID int64, opts CreateHookOptions) (*Hook, error) {
	var hook Hook
	path := fmt.Sprintf("/projects/%d/hooks", projectID)
	if err := c.do(ctx, token, http.MethodPost, path, nil, opts, &hook); err != nil {
		return nil, err
	}
	return &hook, nil
}

func (c *client) do(ctx context.Context, token, method, path string, query url.Values, body, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("序列化请求失败: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set(constants.HeaderPrivateToken, token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("请求 gitlab %s 失败: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: string(data)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("解析 gitlab %s 响应失败: %w", path, err)
	}
	return nil
}
