package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"talaty/internal/forms/models"
	"talaty/internal/platform/postgres"
	id "talaty/pkg/domain"
	"talaty/pkg/platform/sentinel"
	txcontext "talaty/pkg/platform/tx"
)

// PostgresStore persists forms in PostgreSQL with form_data as JSONB.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const formColumns = `id, user_id, form_type, form_data, status, completion_percentage,
	version, submitted_at, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, form *models.Form) error {
	data, err := json.Marshal(form.Data)
	if err != nil {
		return fmt.Errorf("marshal form data: %w", err)
	}
	query := `INSERT INTO forms (` + formColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err = txcontext.Exec(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(form.ID), uuid.UUID(form.UserID), string(form.Type), data, string(form.Status),
		form.CompletionPercentage, form.Version, form.SubmittedAt, form.CreatedAt, form.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("create form: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("create form: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, formID id.FormID) (*models.Form, error) {
	query := `SELECT ` + formColumns + ` FROM forms WHERE id = $1`
	return s.queryOne(ctx, query, uuid.UUID(formID))
}

func (s *PostgresStore) FindByUserAndType(ctx context.Context, userID id.UserID, formType models.FormType) (*models.Form, error) {
	query := `SELECT ` + formColumns + ` FROM forms WHERE user_id = $1 AND form_type = $2`
	return s.queryOne(ctx, query, uuid.UUID(userID), string(formType))
}

func (s *PostgresStore) Update(ctx context.Context, form *models.Form) error {
	data, err := json.Marshal(form.Data)
	if err != nil {
		return fmt.Errorf("marshal form data: %w", err)
	}
	query := `UPDATE forms SET
		form_data = $2, status = $3, completion_percentage = $4, version = $5,
		submitted_at = $6, updated_at = $7
		WHERE id = $1`
	res, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(form.ID), data, string(form.Status), form.CompletionPercentage, form.Version,
		form.SubmittedAt, form.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update form: %w", err)
	}
	return expectOneRow(res)
}

func (s *PostgresStore) Delete(ctx context.Context, formID id.FormID) error {
	res, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, `DELETE FROM forms WHERE id = $1`, uuid.UUID(formID))
	if err != nil {
		return fmt.Errorf("delete form: %w", err)
	}
	return expectOneRow(res)
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID) ([]*models.Form, error) {
	query := `SELECT ` + formColumns + ` FROM forms WHERE user_id = $1 ORDER BY created_at, id`
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, query, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("list forms: %w", err)
	}
	defer rows.Close()

	var forms []*models.Form
	for rows.Next() {
		f, err := scanForm(rows)
		if err != nil {
			return nil, fmt.Errorf("scan form: %w", err)
		}
		forms = append(forms, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate forms: %w", err)
	}
	return forms, nil
}

func (s *PostgresStore) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, `SELECT status, COUNT(*) FROM forms GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count forms by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan form count: %w", err)
		}
		counts[models.Status(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate form counts: %w", err)
	}
	return counts, nil
}

func (s *PostgresStore) queryOne(ctx context.Context, query string, args ...any) (*models.Form, error) {
	row := txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query, args...)
	f, err := scanForm(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find form: %w", err)
	}
	return f, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanForm(row scanner) (*models.Form, error) {
	var (
		f               models.Form
		rawID, rawUser  uuid.UUID
		formType, state string
		data            []byte
		submittedAt     sql.NullTime
	)
	err := row.Scan(&rawID, &rawUser, &formType, &data, &state, &f.CompletionPercentage,
		&f.Version, &submittedAt, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	f.ID = id.FormID(rawID)
	f.UserID = id.UserID(rawUser)
	f.Type = models.FormType(formType)
	f.Status = models.Status(state)
	if err := json.Unmarshal(data, &f.Data); err != nil {
		return nil, fmt.Errorf("unmarshal form data: %w", err)
	}
	if submittedAt.Valid {
		at := submittedAt.Time
		f.SubmittedAt = &at
	}
	return &f, nil
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
