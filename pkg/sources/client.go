package sources

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
	"golang.org/x/time/rate"
)

// DefaultMaxBodyBytes 默认单次响应上限
const DefaultMaxBodyBytes = 64 << 20

// ErrBodyTooLarge 响应体超过上限（对外导出）
var ErrBodyTooLarge = errors.New("response body too large")

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// ClientConfig HTTP客户端配置（对外导出）
type ClientConfig struct {
	Timeout   time.Duration
	RateLimit float64 // 每秒请求数，<=0不限流
	RateBurst int
	UserAgent string
	Headers   map[string]string
	Transport http.RoundTripper
	// MaxBodyBytes 响应体上限，超过时返回错误，<=0使用DefaultMaxBodyBytes
	MaxBodyBytes int64
}

// Client 带限流的HTTP客户端（对外导出）
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
	headers    map[string]string
	maxBody    int64
}

// NewClient 创建HTTP客户端（对外导出）
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 1
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout, Transport: cfg.Transport},
		limiter:    rate.NewLimiter(limit, cfg.RateBurst),
		userAgent:  cfg.UserAgent,
		headers:    cfg.Headers,
		maxBody:    cfg.MaxBodyBytes,
	}
}

// Get 发起GET请求并按encoding解码为UTF-8（对外导出）
func (c *Client) Get(ctx context.Context, rawURL string, query map[string]string, headers map[string]string, enc string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("等待限流失败: %w", err)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("无效的URL %q: %w", rawURL, err)
	}
	if len(query) > 0 {
		q := u.Query()
		for k, v := range query {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求 %s 失败: %w", u.Host, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("请求 %s 返回状态码 %d", u.Host, resp.StatusCode)
	}
	if int64(len(body)) > c.maxBody {
		return nil, fmt.Errorf("请求 %s 响应超过%d字节: %w", u.Host, c.maxBody, ErrBodyTooLarge)
	}
	return Decode(body, enc)
}

// Decode 将指定编码的内容解码为UTF-8，空编码或utf-8原样返回（对外导出）
func Decode(body []byte, enc string) ([]byte, error) {
	var e encoding.Encoding
	switch strings.ToLower(strings.TrimSpace(enc)) {
	case "", "utf-8", "utf8":
		return body, nil
	case "gbk", "gb2312":
		e = simplifiedchinese.GBK
	case "gb18030":
		e = simplifiedchinese.GB18030
	default:
		return nil, fmt.Errorf("不支持的编码: %s", enc)
	}
	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(body), e.NewDecoder()))
	if err != nil {
		return nil, fmt.Errorf("%s解码失败: %w", enc, err)
	}
	return decoded, nil
}
