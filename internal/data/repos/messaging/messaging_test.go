package messaging

import (
	"testing"
	"time"

	"github.com/yungbote/deelicious-bakes-backend/internal/data/repos/testutil"
	types "github.com/yungbote/deelicious-bakes-backend/internal/domain"
	"github.com/yungbote/deelicious-bakes-backend/internal/domain/messaging"
)

func TestThreadListCountsAndSearch(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := testutil.Ctx(tx)
	threads := NewThreadRepo(db, testutil.Logger(t))
	messages := NewMessageRepo(db, testutil.Logger(t))

	customer := testutil.SeedUser(t, tx, "customer@example.com")
	admin := testutil.SeedAdmin(t, tx, "admin@example.com")
	now := time.Now().UTC()

	th := &types.MessageThread{UserID: customer.ID, Subject: "Wedding tasting", Status: messaging.ThreadOpen, Priority: "normal", LastMessageAt: now}
	quiet := &types.MessageThread{UserID: customer.ID, Subject: "Delivery time", Status: messaging.ThreadOpen, Priority: "urgent", LastMessageAt: now.Add(-time.Hour)}
	for _, x := range []*types.MessageThread{th, quiet} {
		if err := threads.Create(dbc, x); err != nil {
			t.Fatalf("Create thread: %v", err)
		}
	}
	for _, m := range []*types.Message{
		{ThreadID: th.ID, SenderID: customer.ID, Content: "Can we book a lemon sponge tasting?", IsFromCustomer: true},
		{ThreadID: th.ID, SenderID: admin.ID, Content: "Of course, Saturday works."},
		{ThreadID: quiet.ID, SenderID: customer.ID, Content: "When do you deliver?", IsFromCustomer: true},
	} {
		if err := messages.Create(dbc, m); err != nil {
			t.Fatalf("Create message: %v", err)
		}
	}

	rows, total, err := threads.List(dbc, ThreadFilter{UserID: testutil.PtrUUID(customer.ID), Limit: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 2 || rows[0].ID != th.ID || rows[0].MessageCount != 2 || rows[0].UnreadCount != 1 {
		t.Fatalf("List: total=%d rows=%+v", total, rows)
	}

	rows, _, err = threads.List(dbc, ThreadFilter{Search: "LEMON", Limit: 10})
	if err != nil || len(rows) != 1 || rows[0].ID != th.ID {
		t.Fatalf("List(search content): %+v err=%v", rows, err)
	}
	rows, _, err = threads.List(dbc, ThreadFilter{UnreadOnly: true, UserID: testutil.PtrUUID(customer.ID), Limit: 10})
	if err != nil || len(rows) != 1 {
		t.Fatalf("List(unread): %+v err=%v", rows, err)
	}

	if n, err := messages.UnreadForUser(dbc, customer.ID); err != nil || n != 1 {
		t.Fatalf("UnreadForUser: n=%d err=%v", n, err)
	}
	if n, err := messages.MarkRead(dbc, th.ID, false); err != nil || n != 1 {
		t.Fatalf("MarkRead: n=%d err=%v", n, err)
	}
	if n, _ := messages.UnreadForUser(dbc, customer.ID); n != 0 {
		t.Fatalf("UnreadForUser after read: %d", n)
	}

	ms, err := messages.Stats(dbc)
	if err != nil || ms.Total != 3 || ms.UnreadFromCustomers != 2 {
		t.Fatalf("message Stats: %+v err=%v", ms, err)
	}
	ts, err := threads.Stats(dbc)
	if err != nil || ts.Open != 2 || ts.UrgentOpen != 1 {
		t.Fatalf("thread Stats: %+v err=%v", ts, err)
	}

	recent, err := messages.Recent(dbc, 2)
	if err != nil || len(recent) != 2 || recent[0].Type != "message" {
		t.Fatalf("Recent: %+v err=%v", recent, err)
	}
}

func TestCustomRequestRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := testutil.Ctx(tx)
	repo := NewCustomRequestRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, tx, "custom@example.com")
	quote := int64(12000)
	reqs := []*types.CustomRequest{
		{UserID: u.ID, RequestType: "custom_cake", Title: "Unicorn cake", Description: "Three tiers", Status: messaging.RequestQuoted, QuotedPriceCents: &quote},
		{UserID: u.ID, RequestType: "bulk_order", Title: "Office cookies", Description: "200 cookies", Status: messaging.RequestPending},
	}
	for _, r := range reqs {
		if err := repo.Create(dbc, r); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	hasQuote := true
	rows, total, err := repo.List(dbc, RequestFilter{HasQuote: &hasQuote, Limit: 10})
	if err != nil || total != 1 || rows[0].ID != reqs[0].ID {
		t.Fatalf("List(has quote): total=%d err=%v", total, err)
	}
	rows, total, err = repo.List(dbc, RequestFilter{Search: "cookie", Type: "bulk_order", Limit: 10})
	if err != nil || total != 1 || rows[0].ID != reqs[1].ID {
		t.Fatalf("List(search): total=%d err=%v", total, err)
	}

	counts, err := repo.StatusCounts(dbc)
	if err != nil || counts[messaging.RequestQuoted] != 1 || counts[messaging.RequestPending] != 1 || counts[messaging.RequestDeclined] != 0 {
		t.Fatalf("StatusCounts: %+v err=%v", counts, err)
	}
}
