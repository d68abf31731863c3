package common

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type locationBody struct {
	Lat *float64 `json:"lat" binding:"required,gte=-90,lte=90"`
	Lng *float64 `json:"lng" binding:"required,gte=-180,lte=180"`
}

func bindError(t *testing.T, body string) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")

	var req locationBody
	return FormatBindingError(c.ShouldBindJSON(&req))
}

func TestFormatBindingError(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "empty", body: "", want: "Request body is empty"},
		{name: "syntax", body: `{"lat":}`, want: "Invalid JSON at byte offset"},
		{name: "type", body: `{"lat":"north","lng":1}`, want: "Field 'lat' should be of type float64"},
		{name: "required", body: `{"lat":1}`, want: "Field 'lng' is required"},
		{name: "range", body: `{"lat":91,"lng":200}`, want: "Field 'lat' must be less than or equal to 90, Field 'lng' must be less than or equal to 180"},
		{name: "valid", body: `{"lat":0,"lng":0}`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := bindError(t, tt.body)
			if tt.want == "" {
				assert.Empty(t, got)
				return
			}
			assert.Contains(t, got, tt.want)
		})
	}
}

func TestErrorResponseWithKind(t *testing.T) {
	r := NewErrorResponse("outside geofenced area").WithKind("policy")
	assert.Equal(t, "policy", r.Kind)
	assert.Equal(t, "hello", NewSuccessMessage(1, "hello").Message)
	assert.Equal(t, int64(3), NewSearchResponse([]int{1, 2, 3}, 3).Pagination.Total)
}
