package warehouse

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/LENAX/akshare-warehouse/pkg/api/dto"
)

// Client 数据仓库HTTP API客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New 创建客户端，同步采集可能较慢，超时与服务端写超时一致
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Minute,
		},
	}
}

// APIError 服务端返回的错误
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API错误 %d: %s", e.Code, e.Message)
}

// ========== Source API ==========

// ListSources 列出数据源，category为空时返回全部
func (c *Client) ListSources(category string) (*dto.ListResponse[dto.SourceSummary], error) {
	params := url.Values{}
	if category != "" {
		params.Set("category", category)
	}
	var resp dto.APIResponse[dto.ListResponse[dto.SourceSummary]]
	if err := c.get(withQuery("/api/v1/sources", params), &resp); err != nil {
		return nil, err
	}
	if err := checkCode(resp.Code, resp.Message); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// GetSource 获取数据源详情
func (c *Client) GetSource(name string) (*dto.SourceSummary, error) {
	var resp dto.APIResponse[dto.SourceSummary]
	if err := c.get("/api/v1/sources/"+url.PathEscape(name), &resp); err != nil {
		return nil, err
	}
	if err := checkCode(resp.Code, resp.Message); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// ========== Acquisition API ==========

// Acquire 发起采集；采集失败时同时返回执行记录和*APIError
func (c *Client) Acquire(req dto.AcquireRequest) (*dto.AcquisitionResponse, error) {
	var resp dto.APIResponse[dto.AcquisitionResponse]
	if err := c.post("/api/v1/acquisitions", req, &resp); err != nil {
		return nil, err
	}
	if err := checkCode(resp.Code, resp.Message); err != nil {
		if resp.Data.Execution.ID != "" {
			return &resp.Data, err
		}
		return nil, err
	}
	return &resp.Data, nil
}

// ========== Execution API ==========

// ListExecutions 查询执行记录
func (c *Client) ListExecutions(source, status string, limit, offset int) (*dto.ListResponse[dto.ExecutionSummary], error) {
	params := url.Values{}
	if source != "" {
		params.Set("source", source)
	}
	if status != "" {
		params.Set("status", status)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		params.Set("offset", strconv.Itoa(offset))
	}

	var resp dto.APIResponse[dto.ListResponse[dto.ExecutionSummary]]
	if err := c.get(withQuery("/api/v1/executions", params), &resp); err != nil {
		return nil, err
	}
	if err := checkCode(resp.Code, resp.Message); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// GetExecution 获取执行记录详情
func (c *Client) GetExecution(id string) (*dto.ExecutionDetail, error) {
	var resp dto.APIResponse[dto.ExecutionDetail]
	if err := c.get("/api/v1/executions/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	if err := checkCode(resp.Code, resp.Message); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// Stats 最近days天的执行统计
func (c *Client) Stats(days int) (*dto.ExecutionStatsResponse, error) {
	params := url.Values{}
	if days > 0 {
		params.Set("days", strconv.Itoa(days))
	}
	var resp dto.APIResponse[dto.ExecutionStatsResponse]
	if err := c.get(withQuery("/api/v1/executions/stats", params), &resp); err != nil {
		return nil, err
	}
	if err := checkCode(resp.Code, resp.Message); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// ========== Table / Schedule API ==========

// TableStats 获取表统计
func (c *Client) TableStats(name string, refresh bool) (*dto.TableStats, error) {
	params := url.Values{}
	if refresh {
		params.Set("refresh", "true")
	}
	var resp dto.APIResponse[dto.TableStats]
	if err := c.get(withQuery("/api/v1/tables/"+url.PathEscape(name)+"/stats", params), &resp); err != nil {
		return nil, err
	}
	if err := checkCode(resp.Code, resp.Message); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// ListSchedules 列出定时任务
func (c *Client) ListSchedules() (*dto.ListResponse[dto.ScheduleSummary], error) {
	var resp dto.APIResponse[dto.ListResponse[dto.ScheduleSummary]]
	if err := c.get("/api/v1/schedules", &resp); err != nil {
		return nil, err
	}
	if err := checkCode(resp.Code, resp.Message); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// ========== Health API ==========

// Health 健康检查
func (c *Client) Health() (*dto.HealthResponse, error) {
	var resp dto.APIResponse[dto.HealthResponse]
	if err := c.get("/health", &resp); err != nil {
		return nil, err
	}
	if err := checkCode(resp.Code, resp.Message); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// ========== HTTP Methods ==========

func (c *Client) get(path string, result interface{}) error {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()

	return parseResponse(resp, result)
}

func (c *Client) post(path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("序列化请求体失败: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	resp, err := c.httpClient.Post(c.baseURL+path, "application/json", reqBody)
	if err != nil {
		return fmt.Errorf("HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()

	return parseResponse(resp, result)
}

func parseResponse(resp *http.Response, result interface{}) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("读取响应体失败: %w", err)
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("解析响应失败(HTTP %d): %w, body: %s", resp.StatusCode, err, string(body))
	}

	return nil
}

func checkCode(code int, message string) error {
	if code == 0 {
		return nil
	}
	return &APIError{Code: code, Message: message}
}

func withQuery(path string, params url.Values) string {
	if len(params) == 0 {
		return path
	}
	return path + "?" + params.Encode()
}

// IsNotFound 是否为404错误
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
