package store

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements create the admin service's tables and the unique
// indexes the provisioning contract requires (email, registration id,
// department name and code).
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS departments (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		code TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		manager TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS departments_name_key ON departments (name)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS departments_code_key ON departments (code)`,

	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL CHECK (char_length(name) >= 2),
		email TEXT NOT NULL CHECK (email LIKE '%_@_%'),
		password_hash TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL CHECK (role IN ('student','faculty','admin')),
		registration_id TEXT,
		department_id TEXT REFERENCES departments(id) ON DELETE SET NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		last_login_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (email)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_registration_id_key ON users (registration_id) WHERE registration_id IS NOT NULL`,

	`CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL CHECK (char_length(name) >= 3),
		description TEXT NOT NULL DEFAULT '',
		start_at TIMESTAMPTZ NOT NULL,
		end_at TIMESTAMPTZ NOT NULL,
		location TEXT NOT NULL DEFAULT '',
		department_id TEXT REFERENCES departments(id) ON DELETE SET NULL,
		attendee_type TEXT NOT NULL CHECK (attendee_type IN ('all','department','specific')),
		eligible_departments JSONB NOT NULL DEFAULT '[]',
		eligible_users JSONB NOT NULL DEFAULT '[]',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		qr_payload TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS event_attendees (
		event_id TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		registered_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		check_in_time TIMESTAMPTZ,
		PRIMARY KEY (event_id, user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS attendance_records (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		event_id TEXT REFERENCES events(id) ON DELETE CASCADE,
		date DATE NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('present','late','absent')),
		check_in_time TIMESTAMPTZ,
		check_in_verified BOOLEAN,
		check_in_location TEXT NOT NULL DEFAULT '',
		check_in_image_url TEXT NOT NULL DEFAULT '',
		check_out_time TIMESTAMPTZ,
		check_out_verified BOOLEAN,
		check_out_location TEXT NOT NULL DEFAULT '',
		check_out_image_url TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS attendance_records_user_date_idx ON attendance_records (user_id, date DESC)`,
	`CREATE INDEX IF NOT EXISTS attendance_records_event_idx ON attendance_records (event_id) WHERE event_id IS NOT NULL`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		token TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		expires_at TIMESTAMPTZ NOT NULL,
		revoked BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// EnsureSchema creates tables and indexes when they do not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
