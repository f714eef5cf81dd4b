package archive

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// indexSchema holds one row per terminal pipeline result.
const indexSchema = `
CREATE TABLE IF NOT EXISTS processed_files (
	id TEXT PRIMARY KEY,
	original_name TEXT NOT NULL,
	new_name TEXT,
	status TEXT NOT NULL,
	message TEXT,
	invoice_number TEXT,
	tax_id TEXT,
	issue_date TEXT,
	total_value TEXT,
	processed_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_processed_files_at ON processed_files(processed_at);
`

// Entry is one recorded pipeline outcome.
type Entry struct {
	ID            uuid.UUID `json:"id"`
	OriginalName  string    `json:"originalName"`
	NewName       string    `json:"newName,omitempty"`
	Status        string    `json:"status"`
	Message       string    `json:"message,omitempty"`
	InvoiceNumber string    `json:"invoiceNumber,omitempty"`
	TaxID         string    `json:"taxId,omitempty"`
	IssueDate     string    `json:"issueDate,omitempty"`
	TotalValue    string    `json:"totalValue,omitempty"`
	ProcessedAt   time.Time `json:"processedAt"`
}

// Index is the processed-file history, a SQLite table so that outcomes
// survive restarts and can be audited after the upload response is gone.
type Index struct {
	db  *sql.DB
	log *slog.Logger
}

// OpenIndex opens (and if needed creates) the history database at path.
func OpenIndex(path string, log *slog.Logger) (*Index, error) {
	if log == nil {
		log = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent batch recording.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(indexSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return &Index{db: db, log: log}, nil
}

func (ix *Index) Close() error {
	return ix.db.Close()
}

// Record persists one terminal result.
func (ix *Index) Record(ctx context.Context, e Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.ProcessedAt.IsZero() {
		e.ProcessedAt = time.Now().UTC()
	}
	_, err := ix.db.ExecContext(ctx, `
		INSERT INTO processed_files
			(id, original_name, new_name, status, message,
			 invoice_number, tax_id, issue_date, total_value, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID.String(), e.OriginalName, e.NewName, e.Status, e.Message,
		e.InvoiceNumber, e.TaxID, e.IssueDate, e.TotalValue, e.ProcessedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("record history: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (ix *Index) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := ix.db.QueryContext(ctx, `
		SELECT id, original_name, new_name, status, message,
		       invoice_number, tax_id, issue_date, total_value, processed_at
		FROM processed_files
		ORDER BY processed_at DESC, id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []Entry
	for rows.Next() {
		var (
			e  Entry
			id string
			at int64
		)
		if err := rows.Scan(&id, &e.OriginalName, &e.NewName, &e.Status, &e.Message,
			&e.InvoiceNumber, &e.TaxID, &e.IssueDate, &e.TotalValue, &at); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		e.ID, _ = uuid.Parse(id)
		e.ProcessedAt = time.Unix(at, 0).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}
