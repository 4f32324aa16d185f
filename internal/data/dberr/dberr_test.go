package dberr

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestIsDuplicate(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"gorm translated", fmt.Errorf("create: %w", gorm.ErrDuplicatedKey), true},
		{"pg unique", &pgconn.PgError{Code: "23505"}, true},
		{"pg other", &pgconn.PgError{Code: "23503"}, false},
		{"sqlite raw", fmt.Errorf("UNIQUE constraint failed: category.slug"), true},
		{"other", fmt.Errorf("boom"), false},
	}
	for _, tc := range cases {
		if got := IsDuplicate(tc.err); got != tc.want {
			t.Fatalf("%s: got=%v want=%v", tc.name, got, tc.want)
		}
	}
	if !IsNotFound(fmt.Errorf("x: %w", gorm.ErrRecordNotFound)) {
		t.Fatalf("IsNotFound should unwrap")
	}
}
