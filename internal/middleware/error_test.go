package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "goze/internal/errors"
)

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/app", func(c *gin.Context) {
		_ = c.Error(apperrors.ErrItemNotFound)
	})
	r.GET("/bind", func(c *gin.Context) {
		_ = c.Error(errors.New("page_size: max")).SetType(gin.ErrorTypeBind)
	})
	r.GET("/plain", func(c *gin.Context) {
		_ = c.Error(errors.New("boom"))
	})
	r.GET("/written", func(c *gin.Context) {
		c.String(http.StatusAccepted, "done")
		_ = c.Error(errors.New("late"))
	})

	tests := []struct {
		path     string
		wantCode int
		wantErr  string
	}{
		{"/app", apperrors.ErrItemNotFound.StatusCode, apperrors.ErrItemNotFound.Code},
		{"/bind", http.StatusBadRequest, apperrors.ErrInvalidInput.Code},
		{"/plain", http.StatusInternalServerError, apperrors.ErrInternalServer.Code},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, http.NoBody))
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if got := errorCode(t, rec); got != tt.wantErr {
				t.Errorf("error = %q, want %q", got, tt.wantErr)
			}
		})
	}

	t.Run("/written", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/written", http.NoBody))
		if rec.Code != http.StatusAccepted || rec.Body.String() != "done" {
			t.Errorf("expected the handler's response to stand, got %d %q", rec.Code, rec.Body.String())
		}
	})
}
