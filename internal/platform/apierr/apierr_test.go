package apierr

import (
	"fmt"
	"net/http"
	"testing"

	pkgerrors "github.com/yungbote/deelicious-bakes-backend/internal/pkg/errors"
)

func TestFromMapsSentinelsAndAPIErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"api error", Conflict("category_has_products", "in use"), http.StatusConflict, "category_has_products"},
		{"wrapped api error", fmt.Errorf("outer: %w", NotFound("order")), http.StatusNotFound, "not_found"},
		{"not found sentinel", fmt.Errorf("x: %w", pkgerrors.ErrNotFound), http.StatusNotFound, "not_found"},
		{"invalid sentinel", pkgerrors.ErrInvalidArgument, http.StatusBadRequest, "invalid_argument"},
		{"conflict sentinel", pkgerrors.ErrConflict, http.StatusConflict, "conflict"},
		{"forbidden sentinel", pkgerrors.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"plain", fmt.Errorf("boom"), http.StatusInternalServerError, "internal_error"},
		{"status only", &Error{Status: http.StatusBadRequest}, http.StatusBadRequest, "invalid_argument"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			status, code := From(tc.err)
			if status != tc.status || code != tc.code {
				t.Fatalf("From(%v): got=(%d,%q) want=(%d,%q)", tc.err, status, code, tc.status, tc.code)
			}
		})
	}
}

func TestMessageHidesInternalErrors(t *testing.T) {
	if got := Message(Conflict("email_taken", "Email already in use")); got != "Email already in use" {
		t.Fatalf("conflict message: %q", got)
	}
	if got := Message(fmt.Errorf("wrap: %w", NotFound("order"))); got != "Order not found" {
		t.Fatalf("not found message: %q", got)
	}
	if got := Message(fmt.Errorf("pq: connection refused")); got != "Internal server error" {
		t.Fatalf("internal message: %q", got)
	}
	if got := Message(pkgerrors.ErrInvalidArgument); got != pkgerrors.ErrInvalidArgument.Error() {
		t.Fatalf("sentinel message: %q", got)
	}
}
