package orders

import "testing"

func TestCanTransition(t *testing.T) {
	allowed := map[[2]string]bool{
		{StatusPending, StatusConfirmed}:   true,
		{StatusPending, StatusCancelled}:   true,
		{StatusConfirmed, StatusPreparing}: true,
		{StatusConfirmed, StatusCancelled}: true,
		{StatusPreparing, StatusReady}:     true,
		{StatusPreparing, StatusCancelled}: true,
		{StatusReady, StatusDelivered}:     true,
	}
	for _, from := range Statuses {
		for _, to := range Statuses {
			want := allowed[[2]string{from, to}]
			if got := CanTransition(from, to); got != want {
				t.Fatalf("CanTransition(%s,%s): got=%v want=%v", from, to, got, want)
			}
		}
	}
}
