package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"talaty/internal/platform/postgres"
	"talaty/internal/users/models"
	id "talaty/pkg/domain"
	"talaty/pkg/platform/sentinel"
	txcontext "talaty/pkg/platform/tx"
)

// PostgresStore persists users in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const userColumns = `id, email, first_name, last_name, phone, business_name,
	email_verified, phone_verified, kyc_status, role, status, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(user.ID), user.Email, user.FirstName, user.LastName, user.Phone, user.BusinessName,
		user.EmailVerified, user.PhoneVerified, string(user.KYCStatus), string(user.Role), string(user.Status),
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("create user: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	row := txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(userID))

	var (
		u                       models.User
		rawID                   uuid.UUID
		kyc, role, accountState string
	)
	err := row.Scan(&rawID, &u.Email, &u.FirstName, &u.LastName, &u.Phone, &u.BusinessName,
		&u.EmailVerified, &u.PhoneVerified, &kyc, &role, &accountState, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	u.ID = id.UserID(rawID)
	u.KYCStatus = models.KYCStatus(kyc)
	u.Role = models.Role(role)
	u.Status = models.AccountStatus(accountState)
	return &u, nil
}

func (s *PostgresStore) Update(ctx context.Context, user *models.User) error {
	query := `UPDATE users SET
		first_name = $2, last_name = $3, phone = $4, business_name = $5,
		email_verified = $6, phone_verified = $7, kyc_status = $8,
		role = $9, status = $10, updated_at = $11
		WHERE id = $1`
	res, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(user.ID), user.FirstName, user.LastName, user.Phone, user.BusinessName,
		user.EmailVerified, user.PhoneVerified, string(user.KYCStatus),
		string(user.Role), string(user.Status), user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListIDs(ctx context.Context) ([]id.UserID, error) {
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, `SELECT id FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list user ids: %w", err)
	}
	defer rows.Close()

	var ids []id.UserID
	for rows.Next() {
		var raw uuid.UUID
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id.UserID(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user ids: %w", err)
	}
	return ids, nil
}

func (s *PostgresStore) CountByStatus(ctx context.Context) (map[models.AccountStatus]int, error) {
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, `SELECT status, COUNT(*) FROM users GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count users by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.AccountStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan user count: %w", err)
		}
		counts[models.AccountStatus(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user counts: %w", err)
	}
	return counts, nil
}
