package roles

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/shishobooks/shelfkeep/pkg/errcodes"
	"github.com/shishobooks/shelfkeep/pkg/models"
	"github.com/uptrace/bun"
)

// Service reads the predefined roles. Roles are seeded by migrations and
// cannot be created or edited at runtime.
type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

type RetrieveRoleOptions struct {
	ID   *int
	Name *string
}

func (s *Service) Retrieve(ctx context.Context, opts RetrieveRoleOptions) (*models.Role, error) {
	role := &models.Role{}
	q := s.db.NewSelect().
		Model(role).
		Relation("Permissions")

	if opts.ID != nil {
		q = q.Where("r.id = ?", *opts.ID)
	}
	if opts.Name != nil {
		q = q.Where("r.name = ?", *opts.Name)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Role")
		}
		return nil, errors.WithStack(err)
	}
	return role, nil
}

// List returns every role with its permissions, ordered by id.
func (s *Service) List(ctx context.Context) ([]*models.Role, error) {
	roles := []*models.Role{}
	err := s.db.NewSelect().
		Model(&roles).
		Relation("Permissions").
		Order("r.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return roles, nil
}
