package sessions

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"grimoire/internal/engine/orgs"
	"grimoire/internal/platform/models"
	"grimoire/internal/platform/repositories"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `
	CREATE TABLE organizations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		visibility TEXT NOT NULL,
		join_mode TEXT NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE organization_memberships (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		organization_id TEXT NOT NULL,
		role TEXT NOT NULL,
		status TEXT NOT NULL,
		joined_at INTEGER NOT NULL,
		invited_by_id TEXT,
		approved_by_id TEXT,
		approved_at INTEGER
	);
	CREATE TABLE sessions (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		mj_id TEXT NOT NULL,
		max_players INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE boards (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL UNIQUE,
		config TEXT NOT NULL DEFAULT '{}',
		background_image_id TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE session_memberships (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		session_id TEXT NOT NULL,
		status TEXT NOT NULL,
		message TEXT NOT NULL DEFAULT '',
		joined_at INTEGER NOT NULL,
		approved_by_id TEXT,
		approved_at INTEGER
	);`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return db
}

type fixture struct {
	svc    *Service
	orgSvc *orgs.Service
	db     *sql.DB
	org    *models.Organization
	mj     *models.User
}

// newFixture builds an organization whose owner acts as MJ for test sessions.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupTestDB(t)
	orgSvc := orgs.NewService(
		repositories.NewOrganizationRepository(db),
		repositories.NewMembershipRepository(db),
		nil,
	)
	svc := NewService(NewRepository(db), orgSvc, nil)

	mj := testUser("usr_mj")
	org, err := orgSvc.Create(mj, orgs.CreateInput{Name: "Test Guild", Slug: "test-guild", JoinMode: models.JoinModeOpen})
	if err != nil {
		t.Fatalf("create org: %v", err)
	}
	return &fixture{svc: svc, orgSvc: orgSvc, db: db, org: org, mj: mj}
}

func testUser(id string) *models.User {
	return &models.User{ID: id, Email: id + "@example.com", GlobalRole: models.GlobalRoleUser, IsActive: true}
}

func (f *fixture) addMember(t *testing.T, user *models.User) {
	t.Helper()
	if _, err := f.orgSvc.Join(user, f.org.ID, ""); err != nil {
		t.Fatalf("join org: %v", err)
	}
}

func TestCreate_ProvisionsBoard(t *testing.T) {
	f := newFixture(t)

	session, err := f.svc.Create(f.mj, f.org.ID, CreateInput{Name: "First Campaign", MaxPlayers: 4})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if session.MJID != f.mj.ID {
		t.Errorf("mj = %q, want creator", session.MJID)
	}
	if session.Status != models.SessionDraft {
		t.Errorf("status = %q, want draft", session.Status)
	}

	var config models.JSONMap
	err = f.db.QueryRow(`SELECT config FROM boards WHERE session_id = ?`, session.ID).Scan(&config)
	if err != nil {
		t.Fatalf("board row: %v", err)
	}
	if config["grid_size"] != float64(50) {
		t.Errorf("grid_size = %v, want 50", config["grid_size"])
	}
	if config["background_color"] != "#1a1a2e" {
		t.Errorf("background_color = %v", config["background_color"])
	}

	// plain members may not create sessions
	member := testUser("usr_member")
	f.addMember(t, member)
	if _, err := f.svc.Create(member, f.org.ID, CreateInput{Name: "Rogue Campaign"}); err == nil {
		t.Error("member created a session")
	}
}

func TestJoin_CapacityLimit(t *testing.T) {
	f := newFixture(t)

	session, err := f.svc.Create(f.mj, f.org.ID, CreateInput{Name: "Tiny Table", MaxPlayers: 1})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	open := models.SessionOpen
	if _, err := f.svc.Update(f.mj, session.ID, UpdateInput{Status: &open}); err != nil {
		t.Fatalf("open session: %v", err)
	}

	playerX := testUser("usr_x")
	playerY := testUser("usr_y")
	f.addMember(t, playerX)
	f.addMember(t, playerY)

	mx, err := f.svc.Join(playerX, session.ID, "")
	if err != nil {
		t.Fatalf("join x: %v", err)
	}
	if mx.Status != models.PlayerPending {
		t.Fatalf("status = %q, want pending", mx.Status)
	}

	// pending seats do not count toward capacity
	if _, err := f.svc.Join(playerY, session.ID, ""); err != nil {
		t.Fatalf("join y while x pending: %v", err)
	}

	if _, err := f.svc.ApprovePlayer(f.mj, session.ID, mx.ID); err != nil {
		t.Fatalf("approve x: %v", err)
	}

	playerZ := testUser("usr_z")
	f.addMember(t, playerZ)
	if _, err := f.svc.Join(playerZ, session.ID, ""); err == nil {
		t.Error("joined a full session")
	}
}

func TestJoin_Preconditions(t *testing.T) {
	f := newFixture(t)

	session, err := f.svc.Create(f.mj, f.org.ID, CreateInput{Name: "Draft Table", MaxPlayers: 4})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	player := testUser("usr_player")
	f.addMember(t, player)

	// draft sessions do not accept players
	if _, err := f.svc.Join(player, session.ID, ""); err == nil {
		t.Error("joined a draft session")
	}

	open := models.SessionOpen
	if _, err := f.svc.Update(f.mj, session.ID, UpdateInput{Status: &open}); err != nil {
		t.Fatalf("open session: %v", err)
	}

	// outsiders need an org membership first
	outsider := testUser("usr_outsider")
	if _, err := f.svc.Join(outsider, session.ID, ""); err == nil {
		t.Error("non-member joined a session")
	}

	if _, err := f.svc.Join(player, session.ID, ""); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := f.svc.Join(player, session.ID, ""); err == nil {
		t.Error("double join accepted")
	}

	if _, err := f.svc.Join(player, "jdr_missing", ""); err == nil {
		t.Error("joined a missing session")
	}
}

func TestApprovePlayer_MJOnly(t *testing.T) {
	f := newFixture(t)

	session, err := f.svc.Create(f.mj, f.org.ID, CreateInput{Name: "Gated Table", MaxPlayers: 4})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	open := models.SessionOpen
	if _, err := f.svc.Update(f.mj, session.ID, UpdateInput{Status: &open}); err != nil {
		t.Fatalf("open session: %v", err)
	}

	player := testUser("usr_player")
	f.addMember(t, player)
	m, err := f.svc.Join(player, session.ID, "")
	if err != nil {
		t.Fatalf("join: %v", err)
	}

	if _, err := f.svc.ApprovePlayer(player, session.ID, m.ID); err == nil {
		t.Error("non-MJ approved a player")
	}

	approved, err := f.svc.ApprovePlayer(f.mj, session.ID, m.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != models.PlayerActive {
		t.Errorf("status = %q, want active", approved.Status)
	}
	if approved.ApprovedByID == nil || *approved.ApprovedByID != f.mj.ID {
		t.Error("approver not stamped")
	}

	if _, err := f.svc.ApprovePlayer(f.mj, session.ID, m.ID); err == nil {
		t.Error("re-approved an active membership")
	}

	if err := f.svc.RequireActivePlayer(player.ID, session.ID); err != nil {
		t.Errorf("active player failed RequireActivePlayer: %v", err)
	}
}

func TestUpdate_Partial(t *testing.T) {
	f := newFixture(t)

	session, err := f.svc.Create(f.mj, f.org.ID, CreateInput{Name: "Mutable Table", Description: "original", MaxPlayers: 4})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	status := models.SessionPaused
	updated, err := f.svc.Update(f.mj, session.ID, UpdateInput{Status: &status})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != models.SessionPaused {
		t.Errorf("status = %q", updated.Status)
	}
	if updated.Name != "Mutable Table" || updated.Description != "original" || updated.MaxPlayers != 4 {
		t.Error("unsupplied fields were reset")
	}

	stranger := testUser("usr_stranger")
	if _, err := f.svc.Update(stranger, session.ID, UpdateInput{Status: &status}); err == nil {
		t.Error("non-MJ updated the session")
	}

	bad := 0
	if _, err := f.svc.Update(f.mj, session.ID, UpdateInput{MaxPlayers: &bad}); err == nil {
		t.Error("zero max_players accepted")
	}
}
