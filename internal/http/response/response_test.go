package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	pkgerrors "github.com/yungbote/deelicious-bakes-backend/internal/pkg/errors"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/apierr"
)

func TestRespondAPIError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"api error", apierr.Conflict("slug_taken", "Slug already in use"), http.StatusConflict, "slug_taken", "Slug already in use"},
		{"not found helper", apierr.NotFound("product"), http.StatusNotFound, "not_found", "Product not found"},
		{"wrapped sentinel", fmt.Errorf("load: %w", pkgerrors.ErrUnauthorized), http.StatusUnauthorized, "unauthorized", ""},
		{"forbidden sentinel", pkgerrors.ErrForbidden, http.StatusForbidden, "forbidden", ""},
		{"unknown", errors.New("pq: connection reset"), http.StatusInternalServerError, "internal_error", "Internal server error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			RespondAPIError(c, tc.err)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status: got=%d want=%d", rec.Code, tc.wantStatus)
			}
			var env ErrorEnvelope
			if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if env.Error.Code != tc.wantCode {
				t.Fatalf("code: got=%q want=%q", env.Error.Code, tc.wantCode)
			}
			if tc.wantMsg != "" && env.Error.Message != tc.wantMsg {
				t.Fatalf("message: got=%q want=%q", env.Error.Message, tc.wantMsg)
			}
		})
	}
}
