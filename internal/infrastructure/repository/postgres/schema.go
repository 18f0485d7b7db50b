package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaLockID serializes EnsureSchema across concurrently starting
// processes (api and seed) pointed at the same database.
const schemaLockID = 7430115

const schemaDDL = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS patients (
	id                 BIGSERIAL PRIMARY KEY,
	full_name          TEXT NOT NULL,
	birth_date         DATE NOT NULL,
	gender             TEXT NOT NULL DEFAULT '',
	family_history     BOOLEAN NOT NULL DEFAULT FALSE,
	diagnosis          TEXT NOT NULL DEFAULT '',
	current_medication TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_patients_full_name ON patients (lower(full_name));

CREATE TABLE IF NOT EXISTS clinical_records (
	id                    BIGSERIAL PRIMARY KEY,
	patient_id            BIGINT NOT NULL REFERENCES patients(id) ON DELETE CASCADE,
	record_date           DATE NOT NULL,
	fasting_glucose       DOUBLE PRECISION NOT NULL DEFAULT 0,
	post_prandial_glucose DOUBLE PRECISION,
	hba1c                 DOUBLE PRECISION,
	weight_kg             DOUBLE PRECISION NOT NULL DEFAULT 0,
	height_cm             DOUBLE PRECISION NOT NULL DEFAULT 0,
	waist_circumference   DOUBLE PRECISION,
	notes                 TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_clinical_records_patient ON clinical_records (patient_id, record_date);

CREATE TABLE IF NOT EXISTS knowledge_documents (
	id         BIGSERIAL PRIMARY KEY,
	title      TEXT NOT NULL,
	content    TEXT NOT NULL,
	source     TEXT NOT NULL DEFAULT '',
	embedding  vector(768),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// EnsureSchema applies the schema idempotently under an advisory lock.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", schemaLockID); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}
	defer func() {
		_, _ = conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", schemaLockID)
	}()

	if _, err := conn.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
