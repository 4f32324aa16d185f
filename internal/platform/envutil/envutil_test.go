package envutil

import (
	"testing"
	"time"
)

func TestParsersFallBackOnGarbage(t *testing.T) {
	t.Setenv("BAKERY_INT", "nope")
	t.Setenv("BAKERY_FLOAT", "0.2")
	t.Setenv("BAKERY_BOOL", "YES")
	t.Setenv("BAKERY_SECONDS", "90")
	t.Setenv("BAKERY_LIST", " a, ,b ")

	if got := Int("BAKERY_INT", 7); got != 7 {
		t.Fatalf("Int: got=%d want=7", got)
	}
	if got := Float("BAKERY_FLOAT", 0); got != 0.2 {
		t.Fatalf("Float: got=%v", got)
	}
	if !Bool("BAKERY_BOOL", false) {
		t.Fatalf("Bool: expected true")
	}
	if got := Seconds("BAKERY_SECONDS", time.Second); got != 90*time.Second {
		t.Fatalf("Seconds: got=%v", got)
	}
	if got := List("BAKERY_LIST", nil); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("List: got=%v", got)
	}
	if got := String("BAKERY_MISSING", "def"); got != "def" {
		t.Fatalf("String: got=%q", got)
	}
}
