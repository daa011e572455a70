package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/recipebox/apiserver/internal/ratelimit"
	"github.com/recipebox/apiserver/internal/services"
	"github.com/recipebox/apiserver/internal/store"
	"github.com/recipebox/apiserver/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
		ok     bool
	}{
		{header: "Token abc123", want: "abc123", ok: true},
		{header: "Bearer abc123", want: "abc123", ok: true},
		{header: "bearer   abc123 ", want: "abc123", ok: true},
		{header: "", ok: false},
		{header: "Basic abc123", ok: false},
		{header: "Token", ok: false},
		{header: "Token   ", ok: false},
	}

	for _, tc := range cases {
		t.Run(tc.header, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			got, err := bearerToken(req)
			if !tc.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestWriteServiceError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"validation", validation.FieldError("title", "is required"), http.StatusBadRequest, "validation failed"},
		{"not found", fmt.Errorf("get: %w", store.ErrNotFound), http.StatusNotFound, "recipe not found"},
		{"credentials", services.ErrInvalidCredentials, http.StatusBadRequest, "Unable to authenticate with given credentials."},
		{"images disabled", services.ErrImagesDisabled, http.StatusServiceUnavailable, services.ErrImagesDisabled.Error()},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/recipe/recipes/1", nil)
			writeServiceError(rec, req, zap.NewNop(), tc.err, "recipe not found")

			assert.Equal(t, tc.status, rec.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.body, body.Error)
		})
	}
}

func TestWriteServiceErrorIncludesFields(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/user/create", nil)
	writeServiceError(rec, req, zap.NewNop(), validation.FieldError("email", "must be a valid email address"), "")

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, map[string]string{"email": "must be a valid email address"}, body.Fields)
}

func TestParseIDList(t *testing.T) {
	ids, err := parseIDList("1, 2,3")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, ids)

	ids, err = parseIDList("")
	require.NoError(t, err)
	assert.Nil(t, ids)

	_, err = parseIDList("1,x")
	assert.Error(t, err)
}

func TestRateLimitRejectsBurst(t *testing.T) {
	limiter := ratelimit.New(1, time.Minute, 1)
	t.Cleanup(limiter.Stop)
	handler := RateLimit(limiter, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	serve := func(remote string) int {
		req := httptest.NewRequest(http.MethodPost, "/user/token", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, serve("10.0.0.1:1234"))
	assert.Equal(t, http.StatusTooManyRequests, serve("10.0.0.1:5678"))
	assert.Equal(t, http.StatusNoContent, serve("10.0.0.2:1234"))
}

func TestDecodeJSONAcceptsEmptyBody(t *testing.T) {
	var in services.RecipeInput
	req := httptest.NewRequest(http.MethodPatch, "/recipe/recipes/1", http.NoBody)
	rec := httptest.NewRecorder()

	assert.True(t, decodeJSON(rec, req, &in))
	assert.Nil(t, in.Title)
}
