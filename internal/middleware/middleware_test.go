package middleware

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func parseBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse response body: %v", err)
	}
	return result
}

// errorCode extracts data.error from a failed envelope.
func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := parseBody(t, rec)
	if success, _ := body["success"].(bool); success {
		t.Fatal("expected a failed envelope")
	}
	data, ok := body["data"].(map[string]interface{})
	if !ok {
		t.Fatal("expected data object in response")
	}
	code, _ := data["error"].(string)
	return code
}
