package queries

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/scalemesh/coordinator/pkg/models"
)

type PatternRepository struct {
	db *sql.DB
}

func NewPatternRepository(db *sql.DB) *PatternRepository {
	return &PatternRepository{db: db}
}

func (r *PatternRepository) Save(ctx context.Context, p *models.ServiceLoadPattern) error {
	windows, err := json.Marshal(p.TimeWindows)
	if err != nil {
		return fmt.Errorf("failed to encode time windows: %w", err)
	}

	query := `
		INSERT INTO load_patterns (service, pattern_type, time_windows, last_updated)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (service) DO UPDATE SET
			pattern_type = EXCLUDED.pattern_type,
			time_windows = EXCLUDED.time_windows,
			last_updated = EXCLUDED.last_updated`

	_, err = r.db.ExecContext(ctx, query,
		p.Service, p.PatternType, windows, p.LastUpdated)
	return err
}

func (r *PatternRepository) Delete(ctx context.Context, service string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM load_patterns WHERE service = $1`, service)
	return err
}

func (r *PatternRepository) LoadAll(ctx context.Context) ([]*models.ServiceLoadPattern, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT service, pattern_type, time_windows, last_updated
		FROM load_patterns`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var patterns []*models.ServiceLoadPattern
	for rows.Next() {
		var (
			p       models.ServiceLoadPattern
			windows []byte
		)
		if err := rows.Scan(&p.Service, &p.PatternType, &windows, &p.LastUpdated); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(windows, &p.TimeWindows); err != nil {
			return nil, fmt.Errorf("failed to decode time windows for %s: %w", p.Service, err)
		}
		patterns = append(patterns, &p)
	}

	return patterns, rows.Err()
}
