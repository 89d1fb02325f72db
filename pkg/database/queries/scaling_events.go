package queries

import (
	"context"
	"database/sql"

	"github.com/scalemesh/coordinator/pkg/models"
)

type ScalingEventRepository struct {
	db *sql.DB
}

func NewScalingEventRepository(db *sql.DB) *ScalingEventRepository {
	return &ScalingEventRepository{db: db}
}

func (r *ScalingEventRepository) Insert(ctx context.Context, e *models.ScalingEvent) error {
	query := `
		INSERT INTO scaling_events
			(id, service, timestamp, previous_replicas, new_replicas,
			 trigger, observed_load_before, observed_load_after, failed, failure_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.Service, e.Timestamp, e.PreviousReplicas, e.NewReplicas,
		e.Trigger, e.ObservedLoadBefore, e.ObservedLoadAfter,
		e.Failed, nullString(e.FailureReason))
	return err
}

func (r *ScalingEventRepository) UpdateOutcome(ctx context.Context, id string, before, after float64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE scaling_events
		SET observed_load_before = $2, observed_load_after = $3
		WHERE id = $1`, id, before, after)
	return err
}

// LoadRecent returns up to perService events for each service, oldest
// first, so the in-memory window can be rebuilt by appending in order.
func (r *ScalingEventRepository) LoadRecent(ctx context.Context, perService int) ([]*models.ScalingEvent, error) {
	if perService <= 0 {
		perService = 100
	}

	query := `
		SELECT id, service, timestamp, previous_replicas, new_replicas,
		       trigger, observed_load_before, observed_load_after, failed, failure_reason
		FROM (
			SELECT *, row_number() OVER (PARTITION BY service ORDER BY timestamp DESC) AS rn
			FROM scaling_events
		) ranked
		WHERE rn <= $1
		ORDER BY timestamp ASC`

	rows, err := r.db.QueryContext(ctx, query, perService)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*models.ScalingEvent
	for rows.Next() {
		var (
			e      models.ScalingEvent
			reason sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Service, &e.Timestamp,
			&e.PreviousReplicas, &e.NewReplicas, &e.Trigger,
			&e.ObservedLoadBefore, &e.ObservedLoadAfter,
			&e.Failed, &reason); err != nil {
			return nil, err
		}
		e.FailureReason = reason.String
		events = append(events, &e)
	}

	return events, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
