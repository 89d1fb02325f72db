package queries

import (
	"context"
	"database/sql"

	"github.com/scalemesh/coordinator/pkg/models"
)

type DependencyRepository struct {
	db *sql.DB
}

func NewDependencyRepository(db *sql.DB) *DependencyRepository {
	return &DependencyRepository{db: db}
}

func (r *DependencyRepository) Save(ctx context.Context, d *models.ScalingDependency) error {
	query := `
		INSERT INTO scaling_dependencies
			(source_service, target_service, dependency_type, ratio, replicas, enabled, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (source_service, target_service) DO UPDATE SET
			dependency_type = EXCLUDED.dependency_type,
			ratio = EXCLUDED.ratio,
			replicas = EXCLUDED.replicas,
			enabled = EXCLUDED.enabled,
			last_updated = EXCLUDED.last_updated`

	var (
		ratio    sql.NullFloat64
		replicas sql.NullInt64
	)
	switch d.Constraint.Type {
	case models.DependencyProportional:
		ratio = sql.NullFloat64{Float64: d.Constraint.Ratio, Valid: true}
	default:
		replicas = sql.NullInt64{Int64: int64(d.Constraint.Replicas), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		d.Source, d.Target, d.Constraint.Type, ratio, replicas,
		d.Enabled, d.LastUpdated)
	return err
}

func (r *DependencyRepository) Delete(ctx context.Context, source, target string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM scaling_dependencies
		WHERE source_service = $1 AND target_service = $2`, source, target)
	return err
}

func (r *DependencyRepository) LoadAll(ctx context.Context) ([]*models.ScalingDependency, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT source_service, target_service, dependency_type, ratio, replicas, enabled, last_updated
		FROM scaling_dependencies`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deps []*models.ScalingDependency
	for rows.Next() {
		var (
			d        models.ScalingDependency
			depType  string
			ratio    sql.NullFloat64
			replicas sql.NullInt64
		)
		if err := rows.Scan(&d.Source, &d.Target, &depType, &ratio, &replicas,
			&d.Enabled, &d.LastUpdated); err != nil {
			return nil, err
		}

		switch models.DependencyType(depType) {
		case models.DependencyProportional:
			d.Constraint = models.Proportional(ratio.Float64)
		case models.DependencyFixed:
			d.Constraint = models.FixedReplicas(int(replicas.Int64))
		case models.DependencyMinimum:
			d.Constraint = models.MinimumReplicas(int(replicas.Int64))
		}
		deps = append(deps, &d)
	}

	return deps, rows.Err()
}
