package postgres

// schema is applied in order inside one transaction (idempotent)
var schema = []string{
	`CREATE SCHEMA IF NOT EXISTS dart_digest`,
	`CREATE TABLE IF NOT EXISTS dart_digest.processed_disclosures (
		receipt_no    TEXT PRIMARY KEY,
		company_name  TEXT NOT NULL,
		title         TEXT NOT NULL,
		market        TEXT NOT NULL DEFAULT '',
		event_type    TEXT NOT NULL,
		total_score   DOUBLE PRECISION NOT NULL,
		published_at  TIMESTAMPTZ NOT NULL,
		first_seen_at TIMESTAMPTZ NOT NULL,
		last_seen_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_processed_published_at
		ON dart_digest.processed_disclosures (published_at DESC)`,
	`CREATE TABLE IF NOT EXISTS dart_digest.reports (
		report_date TEXT PRIMARY KEY,
		run_id      TEXT NOT NULL,
		run_at      TIMESTAMPTZ NOT NULL,
		items       JSONB NOT NULL,
		article     TEXT NOT NULL,
		origin      TEXT NOT NULL,
		generator   TEXT NOT NULL DEFAULT '',
		tuning_hash TEXT NOT NULL DEFAULT '',
		delivered   BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}
