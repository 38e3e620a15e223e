package migrations

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/migrate"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	_, err = db.Exec("PRAGMA foreign_keys=ON")
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func TestBringUpToDate_SeedsRoles(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	group, err := BringUpToDate(ctx, db)
	require.NoError(t, err)
	assert.NotZero(t, group.ID)

	var names []string
	err = db.NewSelect().Table("roles").Column("name").Order("id ASC").Scan(ctx, &names)
	require.NoError(t, err)
	assert.Equal(t, []string{"admin", "author", "member"}, names)

	var memberPermissions int
	err = db.QueryRow(`SELECT COUNT(*) FROM permissions p JOIN roles r ON r.id = p.role_id WHERE r.name = 'member'`).Scan(&memberPermissions)
	require.NoError(t, err)
	assert.Zero(t, memberPermissions)

	var authorPermissions []string
	err = db.NewSelect().
		TableExpr("permissions AS p").
		ColumnExpr("p.resource || ':' || p.operation").
		Join("JOIN roles AS r ON r.id = p.role_id").
		Where("r.name = ?", "author").
		Order("p.operation ASC").
		Scan(ctx, &authorPermissions)
	require.NoError(t, err)
	assert.Equal(t, []string{"catalog:read", "catalog:write"}, authorPermissions)

	// A second run has nothing left to apply.
	group, err = BringUpToDate(ctx, db)
	require.NoError(t, err)
	assert.Zero(t, group.ID)
}

func TestSchemaConstraints(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	_, err := BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO category (name) VALUES ('Fiction')`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO category (name) VALUES ('  ')`)
	require.Error(t, err, "blank category names are rejected")

	_, err = db.Exec(`INSERT INTO book (title, category_id, publication_date, copies_owned) VALUES ('Dune', 1, '1965-08-01 00:00:00+00:00', -1)`)
	require.Error(t, err, "negative copies are rejected")

	_, err = db.Exec(`INSERT INTO book (title, category_id, publication_date, copies_owned) VALUES ('Dune', 1, '1965-08-01 00:00:00+00:00', 2)`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO author (first_name, last_name) VALUES ('Frank', 'Herbert')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO book_author (book_id, author_id) VALUES (1, 1)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO book_author (book_id, author_id) VALUES (1, 1)`)
	require.Error(t, err, "duplicate pairings are rejected")

	_, err = db.Exec(`INSERT INTO users (email, first_name, gender, avatar, password_hash, role_id) VALUES ('a@example.com', 'A', 'female', 'images/avatars/female.png', 'x', 3)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO users (email, first_name, gender, avatar, password_hash, role_id) VALUES ('A@Example.com', 'B', 'male', 'images/avatars/male.png', 'x', 3)`)
	require.Error(t, err, "emails are unique regardless of case")

	_, err = db.Exec(`INSERT INTO loan (book_id, member_id, loan_date, returned_date) VALUES (1, 1, '2026-03-10 00:00:00+00:00', '2026-03-09 00:00:00+00:00')`)
	require.Error(t, err, "returns cannot predate the loan")

	_, err = db.Exec(`INSERT INTO reservation (book_id, member_id, reservation_date, status) VALUES (1, 1, '2026-03-10 00:00:00+00:00', 'lost')`)
	require.Error(t, err, "unknown reservation statuses are rejected")

	_, err = db.Exec(`INSERT INTO loan (book_id, member_id, loan_date) VALUES (1, 1, '2026-03-10 00:00:00+00:00')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO fine (member_id, loan_id, fine_date, fine_amount) VALUES (1, 1, '2026-03-20 00:00:00+00:00', '-5')`)
	require.Error(t, err, "negative fines are rejected")
}

func TestRollback(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	_, err := BringUpToDate(ctx, db)
	require.NoError(t, err)

	migrator := migrate.NewMigrator(db, Migrations)
	group, err := migrator.Rollback(ctx)
	require.NoError(t, err)
	assert.NotZero(t, group.ID)

	var tables int
	err = db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('users', 'book', 'fine_payment')`).Scan(&tables)
	require.NoError(t, err)
	assert.Zero(t, tables)
}
