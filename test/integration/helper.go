//go:build integration

// Package integration 针对运行中服务的端到端测试
//
// 运行方式:
//
//	go run ./cmd/api &
//	go test -tags=integration ./test/integration/...
//
// 馆员账号通过 LIBRARY_IT_USERNAME / LIBRARY_IT_PASSWORD 指定
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	// BaseURL API基础URL
	BaseURL = "http://localhost:8080/api/v1"
	// Timeout HTTP请求超时时间
	Timeout = 10 * time.Second
)

// Response 统一响应结构
type Response struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// BookData 图书响应数据
type BookData struct {
	ID              uint   `json:"id"`
	ISBN            string `json:"isbn"`
	Title           string `json:"title"`
	TotalCopies     int    `json:"total_copies"`
	AvailableCopies int    `json:"available_copies"`
	Status          string `json:"status"`
}

// UserData 读者响应数据
type UserData struct {
	ID     uint   `json:"id"`
	Email  string `json:"email"`
	Status string `json:"status"`
}

// LoanData 借阅响应数据
type LoanData struct {
	ID         uint   `json:"id"`
	BookID     uint   `json:"book_id"`
	UserID     uint   `json:"user_id"`
	DueDate    string `json:"due_date"`
	Status     string `json:"status"`
	FineAmount string `json:"fine_amount"`
}

var client = &http.Client{Timeout: Timeout}

// Do 发送请求并解析统一响应
func Do(t *testing.T, method, url string, data any, token string) *Response {
	t.Helper()
	var body io.Reader
	if data != nil {
		raw, err := json.Marshal(data)
		require.NoError(t, err, "JSON序列化失败")
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err, "创建HTTP请求失败")
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	require.NoError(t, err, "发送HTTP请求失败(服务是否已启动?)")
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "读取响应体失败")

	var result Response
	require.NoError(t, json.Unmarshal(raw, &result), "解析JSON响应失败: %s", string(raw))
	return &result
}

// Decode 解析data字段
func Decode[T any](t *testing.T, resp *Response) T {
	t.Helper()
	require.Equal(t, 0, resp.Code, "请求失败: %s", resp.Message)
	var v T
	require.NoError(t, json.Unmarshal(resp.Data, &v), "解析data失败")
	return v
}

var seq atomic.Int64

// unique 进程内唯一后缀,避免重复运行时冲突
func unique() int64 {
	return time.Now().UnixNano()/1000%1_000_000_000 + seq.Add(1)
}

// GenerateTestEmail 生成唯一的测试邮箱
func GenerateTestEmail(prefix string) string {
	return fmt.Sprintf("%s_%d@test.com", prefix, unique())
}

// GenerateTestISBN 生成唯一的13位ISBN
func GenerateTestISBN() string {
	return fmt.Sprintf("978%010d", unique())
}

// StaffLogin 馆员登录并返回Access Token
func StaffLogin(t *testing.T) string {
	t.Helper()
	username := envOr("LIBRARY_IT_USERNAME", "admin")
	password := envOr("LIBRARY_IT_PASSWORD", "admin123")

	resp := Do(t, http.MethodPost, BaseURL+"/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, "")
	data := Decode[struct {
		AccessToken string `json:"access_token"`
	}](t, resp)
	return data.AccessToken
}

// AddTestBook 入库测试图书
func AddTestBook(t *testing.T, token, title string, copies int) BookData {
	t.Helper()
	resp := Do(t, http.MethodPost, BaseURL+"/books", map[string]any{
		"isbn":         GenerateTestISBN(),
		"title":        title,
		"author":       "测试作者",
		"category":     "集成测试",
		"total_copies": copies,
	}, token)
	return Decode[BookData](t, resp)
}

// RegisterTestPatron 登记测试读者
func RegisterTestPatron(t *testing.T, token, prefix string) UserData {
	t.Helper()
	resp := Do(t, http.MethodPost, BaseURL+"/users", map[string]any{
		"first_name": "Test",
		"last_name":  prefix,
		"email":      GenerateTestEmail(prefix),
	}, token)
	return Decode[UserData](t, resp)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
