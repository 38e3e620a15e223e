package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		statements := []string{
			`CREATE TABLE loan (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				book_id INTEGER REFERENCES book (id) NOT NULL,
				member_id INTEGER REFERENCES users (id) NOT NULL,
				loan_date TIMESTAMPTZ NOT NULL,
				returned_date TIMESTAMPTZ,
				CHECK (returned_date IS NULL OR returned_date >= loan_date)
			)`,
			`CREATE INDEX ix_loan_member_id ON loan (member_id)`,
			`CREATE INDEX ix_loan_book_id ON loan (book_id)`,
			`CREATE TABLE reservation (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				book_id INTEGER REFERENCES book (id) NOT NULL,
				member_id INTEGER REFERENCES users (id) NOT NULL,
				reservation_date TIMESTAMPTZ NOT NULL,
				status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'fulfilled', 'cancelled'))
			)`,
			`CREATE INDEX ix_reservation_member_id ON reservation (member_id)`,
			`CREATE INDEX ix_reservation_book_id ON reservation (book_id)`,
			// Amounts are stored as decimal strings so they round-trip exactly.
			`CREATE TABLE fine (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				member_id INTEGER REFERENCES users (id) NOT NULL,
				loan_id INTEGER REFERENCES loan (id) NOT NULL,
				fine_date TIMESTAMPTZ NOT NULL,
				fine_amount TEXT NOT NULL CHECK (CAST(fine_amount AS REAL) >= 0),
				status TEXT NOT NULL DEFAULT 'unpaid' CHECK (status IN ('unpaid', 'paid'))
			)`,
			`CREATE INDEX ix_fine_member_id ON fine (member_id)`,
			`CREATE INDEX ix_fine_loan_id ON fine (loan_id)`,
			`CREATE TABLE fine_payment (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				member_id INTEGER REFERENCES users (id) NOT NULL,
				fine_id INTEGER REFERENCES fine (id) NOT NULL,
				payment_date TIMESTAMPTZ NOT NULL,
				payment_amount TEXT NOT NULL,
				gateway_order_id TEXT NOT NULL,
				gateway_payment_id TEXT NOT NULL
			)`,
			// One payment per gateway payment id, and at most one payment per fine.
			`CREATE UNIQUE INDEX ux_fine_payment_gateway_payment_id ON fine_payment (gateway_payment_id)`,
			`CREATE UNIQUE INDEX ux_fine_payment_fine_id ON fine_payment (fine_id)`,
			`CREATE INDEX ix_fine_payment_member_id ON fine_payment (member_id)`,
		}
		for _, stmt := range statements {
			if _, err := db.Exec(stmt); err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	}

	down := func(_ context.Context, db *bun.DB) error {
		for _, table := range []string{"fine_payment", "fine", "reservation", "loan"} {
			if _, err := db.Exec("DROP TABLE IF EXISTS " + table); err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	}

	Migrations.MustRegister(up, down)
}
