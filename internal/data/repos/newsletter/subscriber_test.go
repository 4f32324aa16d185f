package newsletter

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/deelicious-bakes-backend/internal/data/repos/testutil"
	types "github.com/yungbote/deelicious-bakes-backend/internal/domain"
	"github.com/yungbote/deelicious-bakes-backend/internal/domain/newsletter"
)

func TestSubscriberRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := testutil.Ctx(tx)
	repo := NewSubscriberRepo(db, testutil.Logger(t))

	now := time.Now().UTC()
	s := &types.Subscriber{
		Email:            "fan@example.com",
		Source:           "footer",
		Status:           newsletter.StatusSubscribed,
		UnsubscribeToken: uuid.NewString(),
		SubscribedAt:     now,
	}
	if err := repo.Create(dbc, s); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByEmail(dbc, " FAN@example.com")
	if err != nil || got == nil || got.ID != s.ID {
		t.Fatalf("GetByEmail: %+v err=%v", got, err)
	}
	got, err = repo.GetByToken(dbc, s.UnsubscribeToken)
	if err != nil || got == nil || got.ID != s.ID {
		t.Fatalf("GetByToken: %+v err=%v", got, err)
	}

	if err := repo.UpdateFields(dbc, s.ID, map[string]any{"status": newsletter.StatusUnsubscribed, "unsubscribed_at": now}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	if n, _ := repo.Count(dbc, newsletter.StatusSubscribed); n != 0 {
		t.Fatalf("Count(subscribed): %d", n)
	}
	rows, total, err := repo.List(dbc, newsletter.StatusUnsubscribed, 10, 0)
	if err != nil || total != 1 || rows[0].UnsubscribedAt == nil {
		t.Fatalf("List: total=%d rows=%+v err=%v", total, rows, err)
	}
}
