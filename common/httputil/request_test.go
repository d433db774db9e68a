package httputil

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseIntParam(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		defaultVal int
		expected   int
	}{
		{"empty uses default", "", 50, 50},
		{"valid", "25", 50, 25},
		{"invalid uses default", "abc", 50, 50},
		{"negative passes through", "-1", 50, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseIntParam(tt.input, tt.defaultVal))
		})
	}
}

func TestParseBoolParam(t *testing.T) {
	assert.True(t, ParseBoolParam("true", false))
	assert.True(t, ParseBoolParam("1", false))
	assert.False(t, ParseBoolParam("false", true))
	assert.True(t, ParseBoolParam("", true))
	assert.False(t, ParseBoolParam("nope", false))
}

func TestParseListParam(t *testing.T) {
	assert.Nil(t, ParseListParam(""))
	assert.Equal(t, []string{"gtm", "page_view"}, ParseListParam("gtm, page_view"))
	assert.Equal(t, []string{"a"}, ParseListParam("a,,  ,"))
}

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, "10.0.0.1:1234", GetClientIP(r))

	r.Header.Set("X-Real-IP", "10.0.0.2")
	assert.Equal(t, "10.0.0.2", GetClientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.195, 70.41.3.18")
	assert.Equal(t, "203.0.113.195", GetClientIP(r))
}
