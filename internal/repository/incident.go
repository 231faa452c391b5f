package repository

import (
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"mindguard/internal/models"
)

var (
	ErrInvalidStatus    = errors.New("invalid incident status")
	ErrIncidentNotFound = errors.New("incident not found")
)

type IncidentRepository interface {
	SaveIncident(incident *models.Incident) error
	GetAllIncidents() ([]*models.Incident, error)
	GetIncidentByID(id int64) (*models.Incident, error)
	GetIncidentsByStatus(status string) ([]*models.Incident, error)
	GetIncidentsByTier(tier string) ([]*models.Incident, error)
	UpdateIncidentStatus(id int64, status string) error
}

type incidentRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewIncidentRepository(db *sqlx.DB, logger *zap.Logger) IncidentRepository {
	return &incidentRepository{db: db, logger: logger}
}

func (r *incidentRepository) SaveIncident(incident *models.Incident) error {
	query := `INSERT INTO incidents (event_id, excerpt, score, tier, categories, action, status)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at`
	return r.db.QueryRowx(query, incident.EventID, incident.Excerpt, incident.Score,
		incident.Tier, incident.Categories, incident.Action, incident.Status).StructScan(incident)
}

func (r *incidentRepository) GetAllIncidents() ([]*models.Incident, error) {
	var incidents []*models.Incident
	query := `SELECT id, event_id, excerpt, score, tier, categories, action, status, created_at
	          FROM incidents ORDER BY created_at DESC`
	if err := r.db.Select(&incidents, query); err != nil {
		return nil, err
	}
	return incidents, nil
}

func (r *incidentRepository) GetIncidentByID(id int64) (*models.Incident, error) {
	var incident models.Incident
	query := `SELECT id, event_id, excerpt, score, tier, categories, action, status, created_at
	          FROM incidents WHERE id = $1`
	if err := r.db.Get(&incident, query, id); err != nil {
		return nil, err
	}
	return &incident, nil
}

func (r *incidentRepository) GetIncidentsByStatus(status string) ([]*models.Incident, error) {
	var incidents []*models.Incident
	query := `SELECT id, event_id, excerpt, score, tier, categories, action, status, created_at
	          FROM incidents WHERE status = $1 ORDER BY created_at DESC`
	if err := r.db.Select(&incidents, query, status); err != nil {
		return nil, err
	}
	return incidents, nil
}

func (r *incidentRepository) GetIncidentsByTier(tier string) ([]*models.Incident, error) {
	var incidents []*models.Incident
	query := `SELECT id, event_id, excerpt, score, tier, categories, action, status, created_at
	          FROM incidents WHERE tier = $1 ORDER BY created_at DESC`
	if err := r.db.Select(&incidents, query, tier); err != nil {
		return nil, err
	}
	return incidents, nil
}

func (r *incidentRepository) UpdateIncidentStatus(id int64, status string) error {
	switch status {
	case models.IncidentOpen, models.IncidentAcknowledged, models.IncidentResolved:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	result, err := r.db.Exec(`UPDATE incidents SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: id %d", ErrIncidentNotFound, id)
	}
	return nil
}
