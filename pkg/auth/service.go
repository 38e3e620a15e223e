package auth

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/shishobooks/shelfkeep/pkg/avatars"
	"github.com/shishobooks/shelfkeep/pkg/database"
	"github.com/shishobooks/shelfkeep/pkg/errcodes"
	"github.com/shishobooks/shelfkeep/pkg/models"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the cost factor for bcrypt hashing.
	BcryptCost = 12
	// TokenExpiry is how long JWT tokens are valid.
	TokenExpiry = 7 * 24 * time.Hour // 7 days
)

var errEmailExists = errcodes.ValidationError("Email already exists")

// JWTClaims represents the claims in a JWT token.
type JWTClaims struct {
	UserID int    `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Service handles authentication operations.
type Service struct {
	db        *bun.DB
	jwtSecret []byte
}

// NewService creates a new auth service.
func NewService(db *bun.DB, jwtSecret string) *Service {
	return &Service{
		db:        db,
		jwtSecret: []byte(jwtSecret),
	}
}

// RegisterOptions carries the profile collected at sign-up. Avatar is the
// stored upload path, or empty to fall back to the gendered placeholder.
type RegisterOptions struct {
	FirstName string
	LastName  string
	Email     string
	Gender    string
	Password  string
	Avatar    string
}

// NormalizeEmail trims and lowercases an address before it is stored or
// compared.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Authenticate validates credentials and returns the user if valid.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user := &models.User{}
	err := s.db.NewSelect().
		Model(user).
		Relation("Role").
		Relation("Role.Permissions").
		Where("u.email = ?", NormalizeEmail(email)).
		Where("u.is_active = ?", true).
		Scan(ctx)
	if err != nil {
		return nil, errcodes.Unauthorized("Invalid email or password")
	}

	if !CheckPassword(password, user.PasswordHash) {
		return nil, errcodes.Unauthorized("Invalid email or password")
	}

	return user, nil
}

// Register creates a member account. The email must not belong to anyone
// else; the unique index catches a racing registration the pre-check missed.
func (s *Service) Register(ctx context.Context, opts RegisterOptions) (*models.User, error) {
	email := NormalizeEmail(opts.Email)

	exists, err := s.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errEmailExists
	}

	role := &models.Role{}
	err = s.db.NewSelect().
		Model(role).
		Where("name = ?", models.RoleMember).
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	hash, err := HashPassword(opts.Password)
	if err != nil {
		return nil, err
	}

	avatar := opts.Avatar
	if avatar == "" {
		avatar = avatars.DefaultAvatar(opts.Gender)
	}

	now := time.Now()
	user := &models.User{
		CreatedAt:    now,
		UpdatedAt:    now,
		Email:        email,
		FirstName:    strings.TrimSpace(opts.FirstName),
		LastName:     strings.TrimSpace(opts.LastName),
		Gender:       opts.Gender,
		Avatar:       avatar,
		PasswordHash: hash,
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

	return s.GetUserByID(ctx, user.ID)
}

// EmailExists reports whether an account already uses exactly this email.
func (s *Service) EmailExists(ctx context.Context, email string) (bool, error) {
	exists, err := s.db.NewSelect().
		Model((*models.User)(nil)).
		Where("u.email = ?", NormalizeEmail(email)).
		Exists(ctx)
	return exists, errors.WithStack(err)
}

// EmailTaken backs the live availability check on the registration form. It
// matches any stored address containing the fragment, ignoring case.
func (s *Service) EmailTaken(ctx context.Context, fragment string) (bool, error) {
	search := "%" + NormalizeEmail(fragment) + "%"
	exists, err := s.db.NewSelect().
		Model((*models.User)(nil)).
		Where("LOWER(u.email) LIKE ?", search).
		Exists(ctx)
	return exists, errors.WithStack(err)
}

// GenerateToken creates a new JWT token for the user.
func (s *Service) GenerateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", errors.WithStack(err)
	}

	return signedToken, nil
}

// ValidateToken validates a JWT token and returns the claims.
func (s *Service) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

// GetUserByID retrieves an active user by ID with role and permissions.
func (s *Service) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	user := &models.User{}
	err := s.db.NewSelect().
		Model(user).
		Relation("Role").
		Relation("Role.Permissions").
		Where("u.id = ?", id).
		Where("u.is_active = ?", true).
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return user, nil
}

// HashPassword hashes a password using bcrypt.
func HashPassword(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return string(hashedPassword), nil
}

// CheckPassword compares a password with a hash.
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
