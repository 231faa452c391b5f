package repository

import (
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"mindguard/internal/models"
)

type AssessmentRepository interface {
	SaveAssessment(rec *models.AssessmentRecord) error
	GetRecentAssessments(limit int) ([]*models.AssessmentRecord, error)
}

type assessmentRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewAssessmentRepository(db *sqlx.DB, logger *zap.Logger) AssessmentRepository {
	return &assessmentRepository{db: db, logger: logger}
}

func (r *assessmentRepository) SaveAssessment(rec *models.AssessmentRecord) error {
	query := `INSERT INTO assessments (score, tier, match_count, degraded)
	          VALUES ($1, $2, $3, $4) RETURNING id, created_at`
	return r.db.QueryRowx(query, rec.Score, rec.Tier, rec.MatchCount, rec.Degraded).StructScan(rec)
}

func (r *assessmentRepository) GetRecentAssessments(limit int) ([]*models.AssessmentRecord, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	var recs []*models.AssessmentRecord
	query := `SELECT id, score, tier, match_count, degraded, created_at
	          FROM assessments ORDER BY created_at DESC LIMIT $1`
	if err := r.db.Select(&recs, query, limit); err != nil {
		return nil, err
	}
	return recs, nil
}
