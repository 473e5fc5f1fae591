package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"talaty/internal/documents/models"
	id "talaty/pkg/domain"
	"talaty/pkg/platform/sentinel"
	txcontext "talaty/pkg/platform/tx"
)

// PostgresStore persists documents in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const documentColumns = `id, user_id, document_type, document_name, file_name, file_path,
	file_size, file_type, status, document_number, issue_date, expiry_date,
	issuing_authority, verified_by, verified_at, verification_notes, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, doc *models.Document) error {
	query := `INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, query, documentArgs(doc)...)
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, docID id.DocumentID) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	row := txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(docID))
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find document by id: %w", err)
	}
	return doc, nil
}

// Transition is a compare-and-set on status. Zero rows means the document
// is gone or its status moved on; the two are told apart with a lookup.
func (s *PostgresStore) Transition(ctx context.Context, doc *models.Document, from models.Status) error {
	query := `UPDATE documents SET
		status = $2, verified_by = $3, verified_at = $4, verification_notes = $5, updated_at = $6
		WHERE id = $1 AND status = $7`
	var verifiedBy *uuid.UUID
	if doc.VerifiedBy != nil {
		v := uuid.UUID(*doc.VerifiedBy)
		verifiedBy = &v
	}
	exec := txcontext.Exec(ctx, s.db)
	res, err := exec.ExecContext(ctx, query,
		uuid.UUID(doc.ID), string(doc.Status), verifiedBy, doc.VerifiedAt, doc.VerificationNotes, doc.UpdatedAt,
		string(from),
	)
	if err != nil {
		return fmt.Errorf("transition document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}
	var exists bool
	err = exec.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM documents WHERE id = $1)`, uuid.UUID(doc.ID)).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check document: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrConflict
}

func (s *PostgresStore) Delete(ctx context.Context, docID id.DocumentID) error {
	res, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, uuid.UUID(docID))
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return expectOneRow(res)
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID) ([]*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE user_id = $1 ORDER BY created_at, id`
	return s.query(ctx, query, uuid.UUID(userID))
}

// ListByStatus filters on stored status; an empty list returns everything.
func (s *PostgresStore) ListByStatus(ctx context.Context, statuses []models.Status) ([]*models.Document, error) {
	if len(statuses) == 0 {
		return s.query(ctx, `SELECT `+documentColumns+` FROM documents ORDER BY created_at, id`)
	}
	query := `SELECT ` + documentColumns + ` FROM documents WHERE status = ANY($1) ORDER BY created_at, id`
	return s.query(ctx, query, pq.Array(statusStrings(statuses)))
}

func (s *PostgresStore) ListExpiryCandidates(ctx context.Context, now time.Time) ([]*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents
		WHERE status = ANY($1) AND expiry_date IS NOT NULL AND expiry_date < $2
		ORDER BY created_at, id`
	active := []models.Status{models.StatusPending, models.StatusApproved}
	return s.query(ctx, query, pq.Array(statusStrings(active)), now)
}

// CountByStatus tallies documents by their effective status at now: pending
// or approved rows past their expiry date count as expired.
func (s *PostgresStore) CountByStatus(ctx context.Context, now time.Time) (map[models.Status]int, error) {
	query := `SELECT
		CASE WHEN status IN ('pending', 'approved') AND expiry_date IS NOT NULL AND expiry_date < $1
			THEN 'expired' ELSE status END AS effective,
		COUNT(*)
		FROM documents GROUP BY effective`
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("count documents by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan document count: %w", err)
		}
		counts[models.Status(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate document counts: %w", err)
	}
	return counts, nil
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]*models.Document, error) {
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*models.Document, error) {
	var (
		doc                models.Document
		rawID, rawUser     uuid.UUID
		docType, status    string
		verifiedBy         *uuid.UUID
		number, authority  sql.NullString
		notes              sql.NullString
		issue, expiry, vAt sql.NullTime
	)
	err := row.Scan(&rawID, &rawUser, &docType, &doc.Name, &doc.FileName, &doc.FilePath,
		&doc.FileSize, &doc.FileType, &status, &number, &issue, &expiry,
		&authority, &verifiedBy, &vAt, &notes, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	doc.ID = id.DocumentID(rawID)
	doc.UserID = id.UserID(rawUser)
	doc.Type = models.DocumentType(docType)
	doc.Status = models.Status(status)
	doc.DocumentNumber = nullString(number)
	doc.IssuingAuthority = nullString(authority)
	doc.VerificationNotes = nullString(notes)
	doc.IssueDate = nullTime(issue)
	doc.ExpiryDate = nullTime(expiry)
	doc.VerifiedAt = nullTime(vAt)
	if verifiedBy != nil {
		reviewer := id.UserID(*verifiedBy)
		doc.VerifiedBy = &reviewer
	}
	return &doc, nil
}

func documentArgs(doc *models.Document) []any {
	var verifiedBy *uuid.UUID
	if doc.VerifiedBy != nil {
		v := uuid.UUID(*doc.VerifiedBy)
		verifiedBy = &v
	}
	return []any{
		uuid.UUID(doc.ID), uuid.UUID(doc.UserID), string(doc.Type), doc.Name, doc.FileName, doc.FilePath,
		doc.FileSize, doc.FileType, string(doc.Status), doc.DocumentNumber, doc.IssueDate, doc.ExpiryDate,
		doc.IssuingAuthority, verifiedBy, doc.VerifiedAt, doc.VerificationNotes, doc.CreatedAt, doc.UpdatedAt,
	}
}

func statusStrings(statuses []models.Status) []string {
	out := make([]string, len(statuses))
	for i, st := range statuses {
		out[i] = string(st)
	}
	return out
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	return &v.Time
}
