package users

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shishobooks/shelfkeep/pkg/auth"
	"github.com/shishobooks/shelfkeep/pkg/avatars"
	"github.com/shishobooks/shelfkeep/pkg/database"
	"github.com/shishobooks/shelfkeep/pkg/errcodes"
	"github.com/shishobooks/shelfkeep/pkg/models"
	"github.com/uptrace/bun"
)

var errEmailExists = errcodes.ValidationError("Email already exists")

// Service handles user operations.
type Service struct {
	db *bun.DB
}

// NewService creates a new users service.
func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

// CreateUserOptions contains options for creating a user.
type CreateUserOptions struct {
	FirstName string
	LastName  string
	Email     string
	Gender    string
	Password  string
	Role      string
}

type RetrieveUserOptions struct {
	ID    *int
	Email *string
}

// ListUsersOptions filters the admin user listing. Role narrows it to one of
// the role-scoped views; Search matches names and email.
type ListUsersOptions struct {
	Role   *string
	Search *string
	Limit  *int
	Offset *int

	includeTotal bool
}

type UpdateUserOptions struct {
	Columns []string
}

// Create creates a new user with the named role.
func (s *Service) Create(ctx context.Context, opts CreateUserOptions) (*models.User, error) {
	email := auth.NormalizeEmail(opts.Email)

	exists, err := s.db.NewSelect().
		Model((*models.User)(nil)).
		Where("email = ?", email).
		Exists(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if exists {
		return nil, errEmailExists
	}

	role, err := s.roleByName(ctx, opts.Role)
	if err != nil {
		return nil, err
	}

	hashedPassword, err := auth.HashPassword(opts.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &models.User{
		CreatedAt:    now,
		UpdatedAt:    now,
		Email:        email,
		FirstName:    opts.FirstName,
		LastName:     opts.LastName,
		Gender:       opts.Gender,
		Avatar:       avatars.DefaultAvatar(opts.Gender),
		PasswordHash: hashedPassword,
		RoleID:       role.ID,
		IsActive:     true,
	}

	_, err = s.db.NewInsert().Model(user).Exec(ctx)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, errEmailExists
		}
		return nil, errors.WithStack(err)
	}

	return s.Retrieve(ctx, RetrieveUserOptions{ID: &user.ID})
}

func (s *Service) roleByName(ctx context.Context, name string) (*models.Role, error) {
	role := &models.Role{}
	err := s.db.NewSelect().
		Model(role).
		Where("name = ?", name).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.ValidationError("Invalid role")
		}
		return nil, errors.WithStack(err)
	}
	return role, nil
}

// Retrieve gets a user with its role.
func (s *Service) Retrieve(ctx context.Context, opts RetrieveUserOptions) (*models.User, error) {
	user := &models.User{}
	q := s.db.NewSelect().
		Model(user).
		Relation("Role").
		Relation("Role.Permissions")

	if opts.ID != nil {
		q = q.Where("u.id = ?", *opts.ID)
	}
	if opts.Email != nil {
		q = q.Where("u.email = ?", auth.NormalizeEmail(*opts.Email))
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("User")
		}
		return nil, errors.WithStack(err)
	}
	return user, nil
}

func (s *Service) List(ctx context.Context, opts ListUsersOptions) ([]*models.User, error) {
	u, _, err := s.listWithTotal(ctx, opts)
	return u, errors.WithStack(err)
}

func (s *Service) ListWithTotal(ctx context.Context, opts ListUsersOptions) ([]*models.User, int, error) {
	opts.includeTotal = true
	return s.listWithTotal(ctx, opts)
}

func (s *Service) listWithTotal(ctx context.Context, opts ListUsersOptions) ([]*models.User, int, error) {
	users := []*models.User{}
	var total int
	var err error

	q := s.db.NewSelect().
		Model(&users).
		Relation("Role").
		Order("u.id ASC")

	if opts.Role != nil {
		q = q.Where("role.name = ?", *opts.Role)
	}
	if opts.Search != nil && *opts.Search != "" {
		search := "%" + strings.ToLower(*opts.Search) + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("LOWER(u.first_name) LIKE ?", search).
				WhereOr("LOWER(u.last_name) LIKE ?", search).
				WhereOr("LOWER(u.email) LIKE ?", search)
		})
	}
	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return users, total, nil
}

// Update writes the listed columns of user.
func (s *Service) Update(ctx context.Context, user *models.User, opts UpdateUserOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	user.UpdatedAt = time.Now()
	columns := append(opts.Columns, "updated_at")

	_, err := s.db.NewUpdate().
		Model(user).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return errEmailExists
		}
		return errors.WithStack(err)
	}
	return nil
}

// AssignRole moves the user to the named role.
func (s *Service) AssignRole(ctx context.Context, user *models.User, roleName string) error {
	role, err := s.roleByName(ctx, roleName)
	if err != nil {
		return err
	}
	user.RoleID = role.ID
	user.Role = role
	return s.Update(ctx, user, UpdateUserOptions{Columns: []string{"role_id"}})
}

// SetPassword replaces a user's password.
func (s *Service) SetPassword(ctx context.Context, userID int, newPassword string) error {
	hashedPassword, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}

	_, err = s.db.NewUpdate().
		Model((*models.User)(nil)).
		Set("password_hash = ?", hashedPassword).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", userID).
		Exec(ctx)
	return errors.WithStack(err)
}

// Deactivate deactivates a user (soft delete).
func (s *Service) Deactivate(ctx context.Context, userID int) error {
	res, err := s.db.NewUpdate().
		Model((*models.User)(nil)).
		Set("is_active = ?", false).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", userID).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errcodes.NotFound("User")
	}
	return nil
}

type roleCount struct {
	Name  string `bun:"name"`
	Count int    `bun:"count"`
}

// CountByRole returns the number of active users holding each role. Every
// predefined role is present in the result, possibly with a zero count.
func (s *Service) CountByRole(ctx context.Context) (map[string]int, error) {
	var rows []roleCount
	err := s.db.NewSelect().
		TableExpr("roles AS r").
		ColumnExpr("r.name AS name").
		ColumnExpr("COUNT(u.id) AS count").
		Join("LEFT JOIN users AS u ON u.role_id = r.id AND u.is_active = ?", true).
		GroupExpr("r.name").
		Scan(ctx, &rows)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	counts := make(map[string]int, len(models.RoleNames))
	for _, name := range models.RoleNames {
		counts[name] = 0
	}
	for _, row := range rows {
		counts[row.Name] = row.Count
	}
	return counts, nil
}
