package roles

import (
	"context"
	"database/sql"
	"testing"

	"github.com/robinjoseph08/golib/pointerutil"
	"github.com/shishobooks/shelfkeep/pkg/errcodes"
	"github.com/shishobooks/shelfkeep/pkg/migrations"
	"github.com/shishobooks/shelfkeep/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func TestList(t *testing.T) {
	t.Parallel()
	svc := NewService(newTestDB(t))

	roles, err := svc.List(context.Background())
	require.NoError(t, err)

	names := []string{}
	for _, r := range roles {
		names = append(names, r.Name)
		assert.True(t, r.IsSystem)
	}
	assert.Equal(t, models.RoleNames, names)
}

func TestRetrieve_Permissions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := NewService(newTestDB(t))

	author, err := svc.Retrieve(ctx, RetrieveRoleOptions{Name: pointerutil.String(models.RoleAuthor)})
	require.NoError(t, err)
	assert.True(t, author.HasPermission(models.ResourceCatalog, models.OperationWrite))
	assert.False(t, author.HasPermission(models.ResourceUsers, models.OperationRead))

	member, err := svc.Retrieve(ctx, RetrieveRoleOptions{Name: pointerutil.String(models.RoleMember)})
	require.NoError(t, err)
	assert.Empty(t, member.Permissions)

	_, err = svc.Retrieve(ctx, RetrieveRoleOptions{ID: pointerutil.Int(999)})
	var errResp *errcodes.Error
	require.ErrorAs(t, err, &errResp)
	assert.Equal(t, 404, errResp.HTTPCode)
}
