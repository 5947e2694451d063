package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		// Create users table
		_, err := db.Exec(`
			CREATE TABLE users (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				username TEXT NOT NULL,
				email TEXT,
				password_hash TEXT NOT NULL,
				is_active BOOLEAN NOT NULL DEFAULT TRUE
			)
		`)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = db.Exec(`CREATE UNIQUE INDEX ux_users_username ON users (username COLLATE NOCASE)`)
		if err != nil {
			return errors.WithStack(err)
		}

		// Create books table
		_, err = db.Exec(`
			CREATE TABLE books (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				external_id TEXT NOT NULL,
				title TEXT NOT NULL,
				author TEXT NOT NULL,
				pages INTEGER,
				cover_url TEXT,
				genres TEXT NOT NULL DEFAULT '[]'
			)
		`)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = db.Exec(`CREATE UNIQUE INDEX ux_books_external_id ON books (external_id)`)
		if err != nil {
			return errors.WithStack(err)
		}

		// Create shelf_records table. One row per (user, book); shelf
		// membership is exclusive by construction.
		_, err = db.Exec(`
			CREATE TABLE shelf_records (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				user_id INTEGER REFERENCES users (id) ON DELETE CASCADE NOT NULL,
				book_id INTEGER REFERENCES books (id) ON DELETE CASCADE NOT NULL,
				shelf TEXT NOT NULL CHECK (shelf IN ('currently_reading', 'queue', 'history')),
				status TEXT CHECK (status IN ('in_progress', 'almost_done', 'finished', 'unfinished')),
				media_type TEXT CHECK (media_type IN ('e_reader', 'audio_book', 'physical_book')),
				comment TEXT,
				queue_position INTEGER,
				added_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
			)
		`)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = db.Exec(`CREATE UNIQUE INDEX ux_shelf_records_user_book ON shelf_records (user_id, book_id)`)
		if err != nil {
			return errors.WithStack(err)
		}

		// Queue positions are unique per user while a record is on the queue.
		_, err = db.Exec(`
			CREATE UNIQUE INDEX ux_shelf_records_queue_position
			ON shelf_records (user_id, queue_position)
			WHERE shelf = 'queue'
		`)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = db.Exec(`CREATE INDEX ix_shelf_records_user_shelf ON shelf_records (user_id, shelf)`)
		if err != nil {
			return errors.WithStack(err)
		}

		// Create favorites table
		_, err = db.Exec(`
			CREATE TABLE favorites (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				user_id INTEGER REFERENCES users (id) ON DELETE CASCADE NOT NULL,
				book_id INTEGER REFERENCES books (id) ON DELETE CASCADE NOT NULL
			)
		`)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = db.Exec(`CREATE UNIQUE INDEX ux_favorites_user_book ON favorites (user_id, book_id)`)
		if err != nil {
			return errors.WithStack(err)
		}

		// Create events table (outbox for collaborator notifications)
		_, err = db.Exec(`
			CREATE TABLE events (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				user_id INTEGER REFERENCES users (id) ON DELETE CASCADE NOT NULL,
				book_id INTEGER REFERENCES books (id) ON DELETE CASCADE NOT NULL,
				type TEXT NOT NULL,
				status TEXT NOT NULL CHECK (status IN ('pending', 'delivered', 'failed')),
				data TEXT NOT NULL,
				attempts INTEGER NOT NULL DEFAULT 0,
				process_id TEXT
			)
		`)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = db.Exec(`CREATE INDEX ix_events_status ON events (status)`)
		return errors.WithStack(err)
	}

	down := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec(`DROP TABLE IF EXISTS events`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`DROP TABLE IF EXISTS favorites`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`DROP TABLE IF EXISTS shelf_records`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`DROP TABLE IF EXISTS books`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`DROP TABLE IF EXISTS users`)
		return errors.WithStack(err)
	}

	Migrations.MustRegister(up, down)
}
