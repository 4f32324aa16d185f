package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/deelicious-bakes-backend/internal/data/repos/testutil"
	types "github.com/yungbote/deelicious-bakes-backend/internal/domain"
)

func TestUserTokenRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := testutil.Ctx(tx)

	repo := NewUserTokenRepo(db, testutil.Logger(t))
	u := testutil.SeedUser(t, tx, "usertokenrepo@example.com")

	makeToken := func(access, refresh string, exp time.Time) *types.UserToken {
		return &types.UserToken{
			ID:           uuid.New(),
			UserID:       u.ID,
			AccessToken:  access,
			RefreshToken: refresh,
			ExpiresAt:    exp,
		}
	}

	now := time.Now().UTC()
	t1 := makeToken("access-1", "refresh-1", now.Add(time.Hour))
	t2 := makeToken("access-2", "refresh-2", now.Add(time.Hour))
	t3 := makeToken("access-3", "refresh-3", now.Add(-time.Hour))
	if _, err := repo.Create(dbc, []*types.UserToken{t1, t2, t3}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByAccessToken(dbc, "access-1")
	if err != nil || got == nil || got.ID != t1.ID {
		t.Fatalf("GetByAccessToken: got=%+v err=%v", got, err)
	}
	got, err = repo.GetByRefreshToken(dbc, "refresh-2")
	if err != nil || got == nil || got.ID != t2.ID {
		t.Fatalf("GetByRefreshToken: got=%+v err=%v", got, err)
	}
	if got, _ := repo.GetByAccessToken(dbc, ""); got != nil {
		t.Fatalf("GetByAccessToken(empty): expected nil")
	}

	n, err := repo.DeleteExpired(dbc, now)
	if err != nil || n != 1 {
		t.Fatalf("DeleteExpired: n=%d err=%v", n, err)
	}

	if err := repo.DeleteByUserIDExcept(dbc, u.ID, "access-1"); err != nil {
		t.Fatalf("DeleteByUserIDExcept: %v", err)
	}
	rows, err := repo.GetByUserIDs(dbc, []uuid.UUID{u.ID})
	if err != nil || len(rows) != 1 || rows[0].ID != t1.ID {
		t.Fatalf("GetByUserIDs: rows=%+v err=%v", rows, err)
	}

	if err := repo.DeleteByUserIDs(dbc, []uuid.UUID{u.ID}); err != nil {
		t.Fatalf("DeleteByUserIDs: %v", err)
	}
	rows, _ = repo.GetByUserIDs(dbc, []uuid.UUID{u.ID})
	if len(rows) != 0 {
		t.Fatalf("DeleteByUserIDs: %d rows remain", len(rows))
	}
}

func TestVerificationTokenRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := testutil.Ctx(tx)

	repo := NewVerificationTokenRepo(db, testutil.Logger(t))
	u := testutil.SeedUser(t, tx, "verify@example.com")
	now := time.Now().UTC()

	first := &types.VerificationToken{UserID: u.ID, Purpose: "verify_email", TokenHash: "h1", ExpiresAt: now.Add(time.Hour)}
	second := &types.VerificationToken{UserID: u.ID, Purpose: "verify_email", TokenHash: "h2", ExpiresAt: now.Add(time.Hour)}
	for _, tok := range []*types.VerificationToken{first, second} {
		if err := repo.Create(dbc, tok); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	if got, err := repo.GetByHash(dbc, "reset_password", "h1"); err != nil || got != nil {
		t.Fatalf("GetByHash(wrong purpose): got=%+v err=%v", got, err)
	}

	if err := repo.InvalidateForUser(dbc, u.ID, "verify_email", now); err != nil {
		t.Fatalf("InvalidateForUser: %v", err)
	}
	got, err := repo.GetByHash(dbc, "verify_email", "h2")
	if err != nil || got == nil {
		t.Fatalf("GetByHash: got=%+v err=%v", got, err)
	}
	if got.Usable(now) {
		t.Fatalf("expected invalidated token to be unusable")
	}

	third := &types.VerificationToken{UserID: u.ID, Purpose: "verify_email", TokenHash: "h3", ExpiresAt: now.Add(time.Hour)}
	if err := repo.Create(dbc, third); err != nil {
		t.Fatalf("Create: %v", err)
	}
	ok, err := repo.MarkUsed(dbc, third.ID, now)
	if err != nil || !ok {
		t.Fatalf("MarkUsed: ok=%v err=%v", ok, err)
	}
	ok, err = repo.MarkUsed(dbc, third.ID, now)
	if err != nil || ok {
		t.Fatalf("MarkUsed twice: ok=%v err=%v", ok, err)
	}

	n, err := repo.DeleteStale(dbc, now)
	if err != nil || n != 3 {
		t.Fatalf("DeleteStale: n=%d err=%v", n, err)
	}
}
