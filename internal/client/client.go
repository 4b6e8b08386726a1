package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/issuetracker/tracker/config"
	"github.com/issuetracker/tracker/internal/model"
	"k8s.io/klog/v2"
)

var (
	// ErrNotFound 服务端返回 404
	ErrNotFound = errors.New("issue not found")
	// ErrMalformedResponse 响应体无法解析
	ErrMalformedResponse = errors.New("malformed response")
)

// StatusError 非 2xx 响应
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("请求失败: %s %s status=%d, body=%s", e.Method, e.URL, e.StatusCode, e.Body)
}

// RequestIDHeader 每个请求携带的追踪 ID
const RequestIDHeader = "X-Request-ID"

const maxErrorBody = 4 << 10

// Client issues API 客户端，每次调用只发出一个请求，不重试不缓存
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New 根据配置创建客户端
func New(cfg config.APIConfig) (*Client, error) {
	baseURL := strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/")
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("API 地址格式不正确: %q", cfg.BaseURL)
	}

	timeout := cfg.Timeout.Duration
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
			},
		},
	}, nil
}

// NewWithHTTPClient 使用外部提供的 http.Client（测试中使用 httptest）
func NewWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// BaseURL 返回 API 根地址
func (c *Client) BaseURL() string {
	return c.baseURL
}

// List 查询一页 issue，空的过滤条件不会出现在请求参数里
func (c *Client) List(ctx context.Context, query model.IssuesQuery) (*model.IssuesPage, error) {
	endpoint := c.baseURL + "/issues"
	if encoded := query.Values().Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	var page model.IssuesPage
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Get 获取单个 issue，不存在时返回 ErrNotFound
func (c *Client) Get(ctx context.Context, id uint) (*model.Issue, error) {
	var issue model.Issue
	if err := c.do(ctx, http.MethodGet, c.issueURL(id), nil, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// Create 创建 issue，返回服务端生成的完整记录
func (c *Client) Create(ctx context.Context, body model.IssueCreate) (*model.Issue, error) {
	var issue model.Issue
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/issues", body, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// Update 局部更新 issue，返回更新后的完整记录
func (c *Client) Update(ctx context.Context, id uint, body model.IssueUpdate) (*model.Issue, error) {
	var issue model.Issue
	if err := c.do(ctx, http.MethodPut, c.issueURL(id), body, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// Ping 检查 API 连通性
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, c.baseURL+"/health", nil, nil)
}

func (c *Client) issueURL(id uint) string {
	return c.baseURL + "/issues/" + strconv.FormatUint(uint64(id), 10)
}

func (c *Client) do(ctx context.Context, method, endpoint string, reqBody interface{}, respBody interface{}) error {
	var body io.Reader
	if reqBody != nil {
		payload, err := json.Marshal(reqBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	requestID := uuid.New().String()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		klog.Errorf("[client.do] 请求失败: %s %s requestID=%s, error=%v", method, endpoint, requestID, err)
		return err
	}
	defer resp.Body.Close()
	klog.V(6).Infof("[client.do] %s %s status=%d requestID=%s cost=%s", method, endpoint, resp.StatusCode, requestID, time.Since(start))

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, endpoint, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method:     method,
			URL:        endpoint,
			StatusCode: resp.StatusCode,
			Body:       string(data),
		}
	}

	if respBody == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrMalformedResponse, method, endpoint, err)
	}
	return nil
}
