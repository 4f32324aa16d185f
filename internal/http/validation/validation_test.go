package validation

import (
	"errors"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"

	"github.com/yungbote/deelicious-bakes-backend/internal/platform/apierr"
)

type sample struct {
	Slug  string `json:"slug" validate:"omitempty,slug"`
	Color string `json:"color" validate:"omitempty,hexcolor6"`
	Price int64  `json:"price" validate:"price"`
	Name  string `json:"name" validate:"required"`
}

func TestCustomValidators(t *testing.T) {
	v := validator.New()
	if err := Install(v); err != nil {
		t.Fatalf("install: %v", err)
	}

	cases := []struct {
		name    string
		in      sample
		wantErr string
	}{
		{"valid", sample{Slug: "birthday-cakes", Color: "#E8A0BF", Price: 3500, Name: "x"}, ""},
		{"uppercase slug", sample{Slug: "Birthday", Name: "x"}, "slug must contain only lowercase letters, numbers and hyphens"},
		{"double hyphen", sample{Slug: "a--b", Name: "x"}, "slug must contain only lowercase letters, numbers and hyphens"},
		{"short color", sample{Color: "#FFF", Name: "x"}, "color must be a hex color like #E8A0BF"},
		{"negative price", sample{Price: -1, Name: "x"}, "price must be a non-negative amount in cents"},
		{"missing name", sample{}, "name is required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Struct(tc.in)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error %q", tc.wantErr)
			}
			mapped := BindError(err)
			var ae *apierr.Error
			if !errors.As(mapped, &ae) || ae.Status != http.StatusBadRequest || ae.Code != "validation_error" {
				t.Fatalf("unexpected mapping: %#v", mapped)
			}
			if ae.Message != tc.wantErr {
				t.Fatalf("message: got=%q want=%q", ae.Message, tc.wantErr)
			}
		})
	}
}

func TestBindErrorForMalformedBody(t *testing.T) {
	var ae *apierr.Error
	if !errors.As(BindError(errors.New("unexpected EOF")), &ae) || ae.Code != "invalid_request" {
		t.Fatalf("malformed body should map to invalid_request")
	}
}

func TestRegisterIsIdempotent(t *testing.T) {
	if err := Register(); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := Register(); err != nil {
		t.Fatalf("second register: %v", err)
	}
}
