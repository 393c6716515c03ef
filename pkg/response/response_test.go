package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/xiebiao/library/pkg/errors"
)

func perform(t *testing.T, handler gin.HandlerFunc) (int, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	handler(c)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestSuccess(t *testing.T) {
	status, body := perform(t, func(c *gin.Context) { Success(c, gin.H{"id": 1}) })
	assert.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 0, body["code"])
	assert.Equal(t, "success", body["message"])
	assert.NotNil(t, body["data"])
}

func TestError_HidesInternalError(t *testing.T) {
	err := apperrors.WrapDB(errors.New("dial tcp: refused"), "查询图书失败")
	status, body := perform(t, func(c *gin.Context) { Error(c, err) })

	assert.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, apperrors.ErrCodeDatabaseError, body["code"])
	assert.Equal(t, "查询图书失败", body["message"])
	assert.NotContains(t, body, "data")
}

func TestError_PlainError(t *testing.T) {
	_, body := perform(t, func(c *gin.Context) { Error(c, errors.New("boom")) })
	assert.EqualValues(t, apperrors.ErrCodeInternal, body["code"])
}

func TestNewPageData(t *testing.T) {
	p := NewPageData([]int{1}, 21, 1, 10)
	assert.Equal(t, 3, p.TotalPages)

	p = NewPageData([]int{}, 0, 1, 10)
	assert.Equal(t, 0, p.TotalPages)

	p = NewPageData([]int{1, 2}, 2, 0, 0)
	assert.Equal(t, 1, p.TotalPages)
}
