package embedded

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"

	"github.com/wonny/dart-digest/internal/contracts"
	"github.com/wonny/dart-digest/pkg/logger"
)

// Store is the default ledger backed by badgerhold
// ⭐ SSOT: 서버 없는 처리 이력/리포트 저장소
type Store struct {
	store  *badgerhold.Store
	logger *logger.Logger
	now    func() time.Time
}

// Open opens (or creates) the badger directory at path
func Open(path string, log *logger.Logger) (*Store, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = path
	options.ValueDir = path
	options.Logger = nil // badger 기본 로거 대신 zerolog 사용

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger ledger: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"path": path,
	}).Debug("Badger ledger opened")

	return &Store{
		store:  store,
		logger: log,
		now:    time.Now,
	}, nil
}

// IsProcessed reports whether the receipt has been scored before
func (s *Store) IsProcessed(ctx context.Context, receiptNo string) (bool, error) {
	var rec contracts.ProcessedRecord
	err := s.store.Get(receiptNo, &rec)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check processed: %w", err)
	}
	return true, nil
}

// MarkProcessed upserts the ledger entry inside one badger transaction
// first_seen_at 은 최초 기록 시각을 유지
func (s *Store) MarkProcessed(ctx context.Context, scored *contracts.ScoredDisclosure) error {
	now := s.now()
	key := scored.Disclosure.ReceiptNo

	rec := contracts.ProcessedRecord{
		ReceiptNo:   key,
		Company:     scored.Disclosure.Company,
		Title:       scored.Disclosure.Title,
		Market:      scored.Market,
		EventType:   scored.EventType,
		TotalScore:  scored.TotalScore,
		PublishedAt: scored.Disclosure.PublishedAt,
		FirstSeenAt: now,
		LastSeenAt:  now,
	}

	err := s.store.Badger().Update(func(txn *badger.Txn) error {
		var existing contracts.ProcessedRecord
		err := s.store.TxGet(txn, key, &existing)
		switch {
		case err == nil:
			rec.FirstSeenAt = existing.FirstSeenAt
		case errors.Is(err, badgerhold.ErrNotFound):
		default:
			return err
		}
		return s.store.TxUpsert(txn, key, &rec)
	})
	if err != nil {
		return fmt.Errorf("failed to mark processed %s: %w", key, err)
	}
	return nil
}

// GetProcessed returns the ledger entry for a receipt
func (s *Store) GetProcessed(ctx context.Context, receiptNo string) (*contracts.ProcessedRecord, error) {
	var rec contracts.ProcessedRecord
	err := s.store.Get(receiptNo, &rec)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, contracts.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get processed: %w", err)
	}
	return &rec, nil
}

// ReportExists reports whether a report is stored for date (YYYY-MM-DD)
func (s *Store) ReportExists(ctx context.Context, date string) (bool, error) {
	_, err := s.GetReport(ctx, date)
	if errors.Is(err, contracts.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SaveReport upserts the selection keyed by its date
func (s *Store) SaveReport(ctx context.Context, sel *contracts.Selection) error {
	if sel.Date == "" {
		return errors.New("report date is required")
	}
	if err := s.store.Upsert(sel.Date, sel); err != nil {
		return fmt.Errorf("failed to save report %s: %w", sel.Date, err)
	}
	return nil
}

// GetReport loads the report for date
func (s *Store) GetReport(ctx context.Context, date string) (*contracts.Selection, error) {
	var sel contracts.Selection
	err := s.store.Get(date, &sel)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, contracts.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return &sel, nil
}

// ListReports returns the latest reports, newest date first
func (s *Store) ListReports(ctx context.Context, limit int) ([]*contracts.Selection, error) {
	query := badgerhold.Where("Date").Ne("").SortBy("Date").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var reports []contracts.Selection
	if err := s.store.Find(&reports, query); err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	out := make([]*contracts.Selection, 0, len(reports))
	for i := range reports {
		out = append(out, &reports[i])
	}
	return out, nil
}

// CountProcessed returns the number of ledger entries
func (s *Store) CountProcessed(ctx context.Context) (uint64, error) {
	return s.store.Count(&contracts.ProcessedRecord{}, badgerhold.Where("ReceiptNo").Ne(""))
}

// Ping reports whether the badger directory is still open
func (s *Store) Ping(ctx context.Context) error {
	if s.store.Badger().IsClosed() {
		return errors.New("badger ledger is closed")
	}
	return ctx.Err()
}

// Close closes the badger store
func (s *Store) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}
