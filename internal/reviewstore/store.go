package reviewstore

import (
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Sample is a flagged message queued for clinical lexicon review. The
// review team uses these to tune signal weights and vocabulary without
// touching production Postgres.
type Sample struct {
	ID         int64     `json:"id"`
	Text       string    `json:"text"`
	Tier       string    `json:"tier"`
	Score      float64   `json:"score"`
	Categories string    `json:"categories"`
	Reviewed   bool      `json:"reviewed"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store persists review samples in a local SQLite database.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// New opens (and migrates) the review-sample store at dbPath.
func New(dbPath string, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open review store: %w", err)
	}

	store := &Store{db: db, logger: logger}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate review store: %w", err)
	}

	logger.Info("Review store initialized", zap.String("db_path", dbPath))
	return store, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS review_samples (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		text TEXT NOT NULL,
		tier TEXT NOT NULL,
		score REAL NOT NULL,
		categories TEXT,
		reviewed BOOLEAN DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_review_samples_reviewed ON review_samples(reviewed);
	CREATE INDEX IF NOT EXISTS idx_review_samples_created_at ON review_samples(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save queues one flagged message for review.
func (s *Store) Save(sample *Sample) error {
	res, err := s.db.Exec(
		`INSERT INTO review_samples (text, tier, score, categories, reviewed, created_at)
		 VALUES (?, ?, ?, ?, 0, ?)`,
		sample.Text, sample.Tier, sample.Score, sample.Categories, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save review sample: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	sample.ID = id
	return nil
}

// ListPending returns unreviewed samples, oldest first.
func (s *Store) ListPending(limit int) ([]*Sample, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.db.Query(
		`SELECT id, text, tier, score, categories, reviewed, created_at
		 FROM review_samples WHERE reviewed = 0 ORDER BY created_at ASC, id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []*Sample
	for rows.Next() {
		var sample Sample
		var categories sql.NullString
		if err := rows.Scan(&sample.ID, &sample.Text, &sample.Tier, &sample.Score,
			&categories, &sample.Reviewed, &sample.CreatedAt); err != nil {
			return nil, err
		}
		sample.Categories = categories.String
		samples = append(samples, &sample)
	}
	return samples, rows.Err()
}

// MarkReviewed flags a sample as handled by the review team.
func (s *Store) MarkReviewed(id int64) error {
	res, err := s.db.Exec(`UPDATE review_samples SET reviewed = 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("review sample %d not found", id)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
