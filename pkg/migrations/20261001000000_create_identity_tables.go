package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec(`
			CREATE TABLE roles (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				name TEXT NOT NULL UNIQUE,
				is_system BOOLEAN NOT NULL DEFAULT FALSE
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE permissions (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				role_id INTEGER REFERENCES roles (id) ON DELETE CASCADE NOT NULL,
				resource TEXT NOT NULL,
				operation TEXT NOT NULL,
				UNIQUE (role_id, resource, operation)
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE users (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				email TEXT NOT NULL COLLATE NOCASE,
				first_name TEXT NOT NULL,
				last_name TEXT NOT NULL DEFAULT '',
				gender TEXT NOT NULL CHECK (gender IN ('male', 'female', 'other')),
				avatar TEXT NOT NULL,
				password_hash TEXT NOT NULL,
				role_id INTEGER REFERENCES roles (id) NOT NULL,
				is_active BOOLEAN NOT NULL DEFAULT TRUE
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_users_email ON users (email COLLATE NOCASE)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_users_role_id ON users (role_id)`)
		if err != nil {
			return errors.WithStack(err)
		}

		// Admins manage everything, authors curate the catalog, and members
		// hold no administrative permission at all.
		grants := map[string][]string{
			"admin":  {"catalog", "users", "circulation", "fines", "dashboard", "config"},
			"author": {"catalog"},
			"member": {},
		}
		for _, role := range []string{"admin", "author", "member"} {
			var roleID int
			err = db.QueryRow(`INSERT INTO roles (name, is_system) VALUES (?, TRUE) RETURNING id`, role).Scan(&roleID)
			if err != nil {
				return errors.WithStack(err)
			}
			for _, resource := range grants[role] {
				for _, operation := range []string{"read", "write"} {
					_, err = db.Exec(`INSERT INTO permissions (role_id, resource, operation) VALUES (?, ?, ?)`,
						roleID, resource, operation)
					if err != nil {
						return errors.WithStack(err)
					}
				}
			}
		}

		return nil
	}

	down := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec("DROP TABLE IF EXISTS users")
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec("DROP TABLE IF EXISTS permissions")
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec("DROP TABLE IF EXISTS roles")
		return errors.WithStack(err)
	}

	Migrations.MustRegister(up, down)
}
