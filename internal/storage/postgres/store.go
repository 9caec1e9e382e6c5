package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/dart-digest/internal/contracts"
	"github.com/wonny/dart-digest/pkg/database"
	"github.com/wonny/dart-digest/pkg/logger"
)

// Store is the PostgreSQL ledger (DIGEST_STORE=postgres)
// ⭐ SSOT: 처리 이력/리포트 DB 저장은 여기서만
type Store struct {
	db     *database.DB
	logger *logger.Logger
}

// New creates a new postgres ledger
func New(db *database.DB, log *logger.Logger) *Store {
	return &Store{
		db:     db,
		logger: log,
	}
}

// Migrate creates the schema if missing
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.ApplySchema(ctx, schema...); err != nil {
		return fmt.Errorf("failed to migrate ledger schema: %w", err)
	}
	return nil
}

// IsProcessed reports whether the receipt has been scored before
func (s *Store) IsProcessed(ctx context.Context, receiptNo string) (bool, error) {
	var exists bool
	err := s.db.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM dart_digest.processed_disclosures WHERE receipt_no = $1)`,
		receiptNo,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check processed: %w", err)
	}
	return exists, nil
}

// MarkProcessed upserts the ledger entry in one transaction
func (s *Store) MarkProcessed(ctx context.Context, scored *contracts.ScoredDisclosure) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO dart_digest.processed_disclosures (
			receipt_no, company_name, title, market, event_type,
			total_score, published_at, first_seen_at, last_seen_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (receipt_no) DO UPDATE SET
			company_name = EXCLUDED.company_name,
			title = EXCLUDED.title,
			market = EXCLUDED.market,
			event_type = EXCLUDED.event_type,
			total_score = EXCLUDED.total_score,
			published_at = EXCLUDED.published_at,
			last_seen_at = EXCLUDED.last_seen_at
	`

	d := scored.Disclosure
	_, err = tx.Exec(ctx, query,
		d.ReceiptNo, d.Company, d.Title, scored.Market, scored.EventType,
		scored.TotalScore, d.PublishedAt, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to mark processed %s: %w", d.ReceiptNo, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetProcessed returns the ledger entry for a receipt
func (s *Store) GetProcessed(ctx context.Context, receiptNo string) (*contracts.ProcessedRecord, error) {
	query := `
		SELECT receipt_no, company_name, title, market, event_type,
		       total_score, published_at, first_seen_at, last_seen_at
		FROM dart_digest.processed_disclosures
		WHERE receipt_no = $1
	`

	var rec contracts.ProcessedRecord
	err := s.db.Pool.QueryRow(ctx, query, receiptNo).Scan(
		&rec.ReceiptNo, &rec.Company, &rec.Title, &rec.Market, &rec.EventType,
		&rec.TotalScore, &rec.PublishedAt, &rec.FirstSeenAt, &rec.LastSeenAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, contracts.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get processed: %w", err)
	}
	return &rec, nil
}

// ReportExists reports whether a report is stored for date
func (s *Store) ReportExists(ctx context.Context, date string) (bool, error) {
	var exists bool
	err := s.db.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM dart_digest.reports WHERE report_date = $1)`,
		date,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check report: %w", err)
	}
	return exists, nil
}

// SaveReport upserts the selection keyed by its date
func (s *Store) SaveReport(ctx context.Context, sel *contracts.Selection) error {
	if sel.Date == "" {
		return errors.New("report date is required")
	}

	itemsJSON, err := json.Marshal(sel.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal items: %w", err)
	}

	query := `
		INSERT INTO dart_digest.reports (
			report_date, run_id, run_at, items, article,
			origin, generator, tuning_hash, delivered
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (report_date) DO UPDATE SET
			run_id = EXCLUDED.run_id,
			run_at = EXCLUDED.run_at,
			items = EXCLUDED.items,
			article = EXCLUDED.article,
			origin = EXCLUDED.origin,
			generator = EXCLUDED.generator,
			tuning_hash = EXCLUDED.tuning_hash,
			delivered = EXCLUDED.delivered,
			updated_at = NOW()
	`

	_, err = s.db.Pool.Exec(ctx, query,
		sel.Date, sel.RunID, sel.RunAt, itemsJSON, sel.Article,
		string(sel.Origin), sel.Generator, sel.TuningHash, sel.Delivered,
	)
	if err != nil {
		return fmt.Errorf("failed to save report %s: %w", sel.Date, err)
	}
	return nil
}

const reportColumns = `report_date, run_id, run_at, items, article, origin, generator, tuning_hash, delivered`

// GetReport loads the report for date
func (s *Store) GetReport(ctx context.Context, date string) (*contracts.Selection, error) {
	row := s.db.Pool.QueryRow(ctx,
		`SELECT `+reportColumns+` FROM dart_digest.reports WHERE report_date = $1`,
		date,
	)

	sel, err := scanReport(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, contracts.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return sel, nil
}

// ListReports returns the latest reports, newest date first
func (s *Store) ListReports(ctx context.Context, limit int) ([]*contracts.Selection, error) {
	if limit <= 0 {
		limit = 30
	}

	rows, err := s.db.Pool.Query(ctx,
		`SELECT `+reportColumns+` FROM dart_digest.reports ORDER BY report_date DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var out []*contracts.Selection
	for rows.Next() {
		sel, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		out = append(out, sel)
	}
	return out, rows.Err()
}

// Ping checks the pool
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the pool
func (s *Store) Close() error {
	s.db.Close()
	return nil
}

func scanReport(row pgx.Row) (*contracts.Selection, error) {
	var (
		sel       contracts.Selection
		itemsJSON []byte
		origin    string
	)
	if err := row.Scan(
		&sel.Date, &sel.RunID, &sel.RunAt, &itemsJSON, &sel.Article,
		&origin, &sel.Generator, &sel.TuningHash, &sel.Delivered,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(itemsJSON, &sel.Items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal items: %w", err)
	}
	sel.Origin = contracts.NarrativeOrigin(origin)
	return &sel, nil
}
