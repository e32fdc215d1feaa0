package querybuilder

import (
	"testing"
	"time"
)

func assertSQL(t *testing.T, gotQuery, wantQuery string, gotArgs []any, wantArgs ...any) {
	t.Helper()
	if gotQuery != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, gotQuery)
	}
	if len(gotArgs) != len(wantArgs) {
		t.Fatalf("unexpected arg count: got=%d want=%d (%+v)", len(gotArgs), len(wantArgs), gotArgs)
	}
	for i := range wantArgs {
		if gotArgs[i] != wantArgs[i] {
			t.Fatalf("unexpected arg %d: got=%v want=%v", i, gotArgs[i], wantArgs[i])
		}
	}
}

func TestSelectBuilder_LeaderboardQuery(t *testing.T) {
	t.Parallel()

	query, args, err := Select("public_id, points, wins").
		From("users").
		Where(IsNull("deleted_at")).
		OrderBy("points DESC", "wins DESC", "public_id").
		Limit(25).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	assertSQL(t, query,
		"SELECT public_id, points, wins FROM users WHERE deleted_at IS NULL ORDER BY points DESC, wins DESC, public_id LIMIT $1",
		args, 25)
}

func TestSelectBuilder_RangeAndCaseInsensitiveConditions(t *testing.T) {
	t.Parallel()

	query, args, err := Select("public_id").
		From("games").
		Where(
			Eq("status", "upcoming"),
			Gte("game_date", "2026-03-01"),
			EqFold("host_email", "Admin@Zeal.test"),
		).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	assertSQL(t, query,
		"SELECT public_id FROM games WHERE status = $1 AND game_date >= $2 AND lower(host_email) = lower($3)",
		args, "upcoming", "2026-03-01", "Admin@Zeal.test")
}

func TestInsertBuilder_Upsert(t *testing.T) {
	t.Parallel()

	query, args, err := InsertInto("admins").
		Value("public_id", "a-1").
		Value("email", "host@zeal.test").
		OnConflict("public_id").
		UpdateExcluded("email").
		UpdateRaw("deleted_at", "NULL").
		ToSQL()
	if err != nil {
		t.Fatalf("build upsert query: %v", err)
	}

	assertSQL(t, query,
		"INSERT INTO admins (public_id, email) VALUES ($1, $2) ON CONFLICT (public_id) DO UPDATE SET email = EXCLUDED.email, deleted_at = NULL",
		args, "a-1", "host@zeal.test")
}

func TestInsertBuilder_ConflictUpdateNeedsTarget(t *testing.T) {
	t.Parallel()

	_, _, err := InsertInto("admins").Value("email", "x").UpdateExcluded("email").ToSQL()
	if err == nil {
		t.Fatalf("expected error for conflict update without target")
	}
}

type versionedRow struct {
	PublicID  string    `db:"public_id"`
	Status    string    `db:"status"`
	Version   int64     `db:"version"`
	UpdatedAt time.Time `db:"updated_at"`
	note      string
	Ignored   string `db:"-"`
}

func TestInsertModel_UsesTaggedFields(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	query, args, err := InsertModel("games", &versionedRow{PublicID: "g-1", Status: "upcoming", UpdatedAt: at, note: "x"}).ToSQL()
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	assertSQL(t, query,
		"INSERT INTO games (public_id, status, version, updated_at) VALUES ($1, $2, $3, $4)",
		args, "g-1", "upcoming", int64(0), at)
}

func TestUpdateModel_OptimisticVersionCheck(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	row := versionedRow{PublicID: "g-1", Status: "completed", Version: 4, UpdatedAt: at}
	query, args, err := UpdateModel("games", row, "public_id", "version").
		Increment("version", 1).
		Where(Eq("public_id", row.PublicID), Eq("version", row.Version)).
		Returning("version", "updated_at").
		ToSQL()
	if err != nil {
		t.Fatalf("build update query: %v", err)
	}

	assertSQL(t, query,
		"UPDATE games SET status = $1, updated_at = $2, version = version + $3 WHERE public_id = $4 AND version = $5 RETURNING version, updated_at",
		args, "completed", at, int64(1), "g-1", int64(4))
}

func TestBuilders_RejectInvalidInput(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		build func() (string, []any, error)
	}{
		{"select without table", Select("id").ToSQL},
		{"update without where", Update("users").Set("email", "x").ToSQL},
		{"model not a struct", InsertModel("users", 42).ToSQL},
		{"nil model", UpdateModel("users", (*versionedRow)(nil)).Where(Eq("id", 1)).ToSQL},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, _, err := tc.build(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
