package user

import (
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/deelicious-bakes-backend/internal/data/repos/testutil"
	types "github.com/yungbote/deelicious-bakes-backend/internal/domain"
)

func TestUserRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := testutil.Ctx(tx)

	repo := NewUserRepo(db, testutil.Logger(t))

	created, err := repo.Create(dbc, []*types.User{
		{
			ID:        uuid.New(),
			Email:     "userrepo@example.com",
			Password:  "pw",
			FirstName: "Dee",
			LastName:  "Baker",
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 1 || created[0].Role != types.RoleUser {
		t.Fatalf("Create: unexpected result: %+v", created)
	}

	got, err := repo.GetByEmail(dbc, "  UserRepo@Example.com ")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got == nil || got.ID != created[0].ID {
		t.Fatalf("GetByEmail: unexpected result: %+v", got)
	}

	missing, err := repo.GetByID(dbc, uuid.New())
	if err != nil || missing != nil {
		t.Fatalf("GetByID(missing): got=%+v err=%v", missing, err)
	}

	if err := repo.UpdateFields(dbc, created[0].ID, map[string]any{"first_name": "Deanna"}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	got, _ = repo.GetByID(dbc, created[0].ID)
	if got.FirstName != "Deanna" {
		t.Fatalf("UpdateFields: first_name=%q", got.FirstName)
	}

	exists, err := repo.EmailExists(dbc, created[0].Email)
	if err != nil || !exists {
		t.Fatalf("EmailExists: exists=%v err=%v", exists, err)
	}

	if err := repo.SoftDelete(dbc, created[0].ID); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	if got, _ := repo.GetByID(dbc, created[0].ID); got != nil {
		t.Fatalf("SoftDelete: user still visible")
	}
	exists, err = repo.EmailExists(dbc, created[0].Email)
	if err != nil || exists {
		t.Fatalf("EmailExists after delete: exists=%v err=%v", exists, err)
	}
}

func TestUserRepoListAndCounts(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := testutil.Ctx(tx)
	repo := NewUserRepo(db, testutil.Logger(t))

	testutil.SeedUser(t, tx, "alice@example.com")
	testutil.SeedUser(t, tx, "bob@example.com")
	testutil.SeedAdmin(t, tx, "owner@example.com")

	rows, total, err := repo.List(dbc, ListFilter{Search: "ALICE", Limit: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || len(rows) != 1 || rows[0].Email != "alice@example.com" {
		t.Fatalf("List(search): total=%d rows=%+v", total, rows)
	}

	rows, total, err = repo.List(dbc, ListFilter{Role: types.RoleUser, Limit: 1})
	if err != nil {
		t.Fatalf("List(role): %v", err)
	}
	if total != 2 || len(rows) != 1 {
		t.Fatalf("List(role): total=%d len=%d", total, len(rows))
	}

	n, err := repo.CountByRole(dbc, types.RoleUser, nil, false)
	if err != nil || n != 2 {
		t.Fatalf("CountByRole: n=%d err=%v", n, err)
	}
	n, err = repo.CountByRole(dbc, types.RoleUser, nil, true)
	if err != nil || n != 0 {
		t.Fatalf("CountByRole(verified): n=%d err=%v", n, err)
	}

	recent, err := repo.Recent(dbc, types.RoleUser, 5)
	if err != nil || len(recent) != 2 {
		t.Fatalf("Recent: len=%d err=%v", len(recent), err)
	}
}
