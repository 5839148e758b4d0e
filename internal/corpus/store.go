package corpus

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store is a Source backed by SQLite holding card metadata and reference
// image bytes.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or connects to the corpus database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure corpus directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Put inserts or replaces a card and its image bytes. Replacing keeps the
// card's original position in Cards order.
func (s *Store) Put(ctx context.Context, card Card, image []byte) error {
	if err := card.Validate(); err != nil {
		return err
	}
	if len(image) == 0 {
		return fmt.Errorf("put %q: empty image", card.ID)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cards (
            id, name, set_code, collector_number, mana_cost, oracle_text,
            image_ref, image_blob, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            name = excluded.name,
            set_code = excluded.set_code,
            collector_number = excluded.collector_number,
            mana_cost = excluded.mana_cost,
            oracle_text = excluded.oracle_text,
            image_ref = excluded.image_ref,
            image_blob = excluded.image_blob,
            updated_at = excluded.updated_at`,
		card.ID,
		card.Name,
		card.SetCode,
		nullableString(card.CollectorNumber),
		nullableString(card.ManaCost),
		nullableString(card.OracleText),
		card.ImageRef,
		image,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("put card %q: %w", card.ID, err)
	}
	return nil
}

const cardColumns = "id, name, set_code, collector_number, mana_cost, oracle_text, image_ref"

// Get fetches a card by ID. The boolean is false when no such card exists.
func (s *Store) Get(ctx context.Context, id string) (Card, bool, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+cardColumns+" FROM cards WHERE id = ?", id)
	card, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Card{}, false, nil
	}
	if err != nil {
		return Card{}, false, fmt.Errorf("get card %q: %w", id, err)
	}
	return card, true, nil
}

// Remove deletes a card, reporting whether it existed.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM cards WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("remove card %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// Count returns the number of stored cards.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM cards").Scan(&n); err != nil {
		return 0, fmt.Errorf("count cards: %w", err)
	}
	return n, nil
}

// Cards lists every stored card in insertion order.
func (s *Store) Cards(ctx context.Context) ([]Card, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+cardColumns+" FROM cards ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var cards []Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cards: %w", err)
	}
	return cards, nil
}

// OpenImage returns the stored image bytes for card.
func (s *Store) OpenImage(ctx context.Context, card Card) (io.ReadCloser, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, "SELECT image_blob FROM cards WHERE id = ?", card.ID).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("card %q not in corpus", card.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("read image for %q: %w", card.ID, err)
	}
	if len(blob) == 0 {
		return nil, fmt.Errorf("card %q has no stored image", card.ID)
	}
	return io.NopCloser(bytes.NewReader(blob)), nil
}

// ImportFailure records a manifest entry that could not be stored.
type ImportFailure struct {
	ID  string
	Err error
}

// ImportReport summarizes an ImportManifest run.
type ImportReport struct {
	Imported int
	Failed   []ImportFailure
}

// ImportManifest copies every manifest card and its image into the store.
// Per-entry failures are collected in the report; only context cancellation
// or a database failure aborts the import.
func (s *Store) ImportManifest(ctx context.Context, m *Manifest) (ImportReport, error) {
	var report ImportReport
	cards, err := m.Cards(ctx)
	if err != nil {
		return report, err
	}
	for _, card := range cards {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := card.Validate(); err != nil {
			report.Failed = append(report.Failed, ImportFailure{ID: card.ID, Err: err})
			continue
		}
		data, err := ReadImage(ctx, m, card)
		if err != nil {
			report.Failed = append(report.Failed, ImportFailure{ID: card.ID, Err: err})
			continue
		}
		if err := s.Put(ctx, card, data); err != nil {
			return report, err
		}
		report.Imported++
	}
	return report, nil
}

// ReadImage opens and fully reads the reference image of card from src.
func ReadImage(ctx context.Context, src Source, card Card) ([]byte, error) {
	rc, err := src.OpenImage(ctx, card)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read image for %q: %w", card.ID, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("image for %q is empty", card.ID)
	}
	return data, nil
}

func scanCard(scanner interface{ Scan(dest ...any) error }) (Card, error) {
	var card Card
	var collector, mana, oracle sql.NullString
	if err := scanner.Scan(&card.ID, &card.Name, &card.SetCode, &collector, &mana, &oracle, &card.ImageRef); err != nil {
		return Card{}, err
	}
	card.CollectorNumber = collector.String
	card.ManaCost = mana.String
	card.OracleText = oracle.String
	return card, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
