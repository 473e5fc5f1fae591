package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"talaty/internal/scoring/models"
	id "talaty/pkg/domain"
	"talaty/pkg/platform/sentinel"
	txcontext "talaty/pkg/platform/tx"
)

// PostgresStore persists scores in the business_scores table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const scoreColumns = `id, user_id, total_score, registration_score, document_score, form_score,
	verification_score, risk_level, last_calculated, calculation_details, created_at, updated_at`

func (s *PostgresStore) FindByUser(ctx context.Context, userID id.UserID) (*models.Score, error) {
	query := `SELECT ` + scoreColumns + ` FROM business_scores WHERE user_id = $1`
	row := txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(userID))

	var (
		score          models.Score
		rawID, rawUser uuid.UUID
		risk           string
		details        []byte
	)
	err := row.Scan(&rawID, &rawUser, &score.TotalScore, &score.RegistrationScore, &score.DocumentScore,
		&score.FormScore, &score.VerificationScore, &risk, &score.LastCalculated, &details,
		&score.CreatedAt, &score.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find score by user: %w", err)
	}
	score.ID = id.ScoreID(rawID)
	score.UserID = id.UserID(rawUser)
	score.RiskLevel = models.RiskLevel(risk)
	if err := json.Unmarshal(details, &score.CalculationDetails); err != nil {
		return nil, fmt.Errorf("unmarshal calculation details: %w", err)
	}
	return &score, nil
}

// Upsert writes every computed column in one statement, so a score is
// never partially updated. The existing row keeps its id and created_at.
func (s *PostgresStore) Upsert(ctx context.Context, score *models.Score) error {
	details, err := json.Marshal(score.CalculationDetails)
	if err != nil {
		return fmt.Errorf("marshal calculation details: %w", err)
	}
	query := `INSERT INTO business_scores (` + scoreColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (user_id) DO UPDATE SET
			total_score = EXCLUDED.total_score,
			registration_score = EXCLUDED.registration_score,
			document_score = EXCLUDED.document_score,
			form_score = EXCLUDED.form_score,
			verification_score = EXCLUDED.verification_score,
			risk_level = EXCLUDED.risk_level,
			last_calculated = EXCLUDED.last_calculated,
			calculation_details = EXCLUDED.calculation_details,
			updated_at = EXCLUDED.updated_at`
	_, err = txcontext.Exec(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(score.ID), uuid.UUID(score.UserID), score.TotalScore, score.RegistrationScore,
		score.DocumentScore, score.FormScore, score.VerificationScore, string(score.RiskLevel),
		score.LastCalculated, details, score.CreatedAt, score.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert score: %w", err)
	}
	return nil
}

func (s *PostgresStore) Stats(ctx context.Context) (models.ScoreStats, error) {
	stats := models.ScoreStats{RiskDistribution: make(map[models.RiskLevel]int)}
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx,
		`SELECT risk_level, COUNT(*), COALESCE(SUM(total_score), 0) FROM business_scores GROUP BY risk_level`)
	if err != nil {
		return stats, fmt.Errorf("score stats: %w", err)
	}
	defer rows.Close()

	total := 0
	for rows.Next() {
		var risk string
		var n, sum int
		if err := rows.Scan(&risk, &n, &sum); err != nil {
			return stats, fmt.Errorf("scan score stats: %w", err)
		}
		stats.RiskDistribution[models.RiskLevel(risk)] = n
		stats.Count += n
		total += sum
	}
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("iterate score stats: %w", err)
	}
	if stats.Count > 0 {
		stats.Average = float64(total) / float64(stats.Count)
	}
	return stats, nil
}
