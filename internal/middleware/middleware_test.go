package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"encrypted-notes/auth"
	apiError "encrypted-notes/internal/errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(verifier *auth.Verifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler(zerolog.Nop()))

	m := &Auth{Verifier: verifier}
	r.GET("/me", m.AuthMiddleWare(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"subject": c.GetString(SubjectKey)})
	})
	r.GET("/fail", func(c *gin.Context) {
		c.Error(apiError.MissingSpaceKey("S"))
	})
	r.GET("/raw", func(c *gin.Context) {
		c.Error(fmt.Errorf("boom"))
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	verifier := auth.NewVerifier("middleware-test-secret", time.Hour)
	r := setupRouter(verifier)
	token, err := verifier.GenerateJWT("device-7")
	require.NoError(t, err)

	tests := []struct {
		name   string
		url    string
		header string
		status int
	}{
		{"bearer header", "/me", "Bearer " + token, http.StatusOK},
		{"query token", "/me?token=" + token, "", http.StatusOK},
		{"missing", "/me", "", http.StatusUnauthorized},
		{"garbage", "/me", "Bearer nope", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.JSONEq(t, `{"subject":"device-7"}`, w.Body.String())
			}
		})
	}
}

func TestErrorHandler(t *testing.T) {
	r := setupRouter(auth.NewVerifier("middleware-test-secret", time.Hour))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))
	assert.Equal(t, http.StatusConflict, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "missing key for space S", body["error"])
	assert.Equal(t, "missing_space_key", body["kind"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/raw", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"kind":"internal","error":"internal server error"}`, w.Body.String())
}
