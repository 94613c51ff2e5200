package queries

import (
	"context"
	"database/sql"
	"time"

	"github.com/openfleet/autoscaler/pkg/models"
)

type ActionRepository struct {
	db *sql.DB
}

func NewActionRepository(db *sql.DB) *ActionRepository {
	return &ActionRepository{db: db}
}

func (r *ActionRepository) Insert(ctx context.Context, action *models.ScalingAction) error {
	query := `
		INSERT INTO scaling_actions
			(id, target_id, timestamp, direction, trigger_kind, resource_type,
			 from_count, to_count, reason, cost_impact, success, error_message, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO NOTHING`

	var errMsg sql.NullString
	if action.Error != "" {
		errMsg = sql.NullString{String: action.Error, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		action.ID,
		action.TargetID,
		action.Timestamp,
		string(action.Direction),
		string(action.Trigger),
		action.ResourceType,
		action.FromCount,
		action.ToCount,
		action.Reason,
		action.CostImpactPerHour,
		action.Success,
		errMsg,
		action.DurationMs,
	)
	return err
}

func (r *ActionRepository) GetByTarget(ctx context.Context, targetID string, from, to time.Time, limit int) ([]*models.ScalingAction, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, target_id, timestamp, direction, trigger_kind, resource_type,
			   from_count, to_count, reason, cost_impact, success, error_message, duration_ms
		FROM scaling_actions
		WHERE target_id = $1 AND timestamp >= $2 AND timestamp <= $3
		ORDER BY timestamp DESC
		LIMIT $4`

	rows, err := r.db.QueryContext(ctx, query, targetID, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanActions(rows)
}

func (r *ActionRepository) GetRecent(ctx context.Context, limit int) ([]*models.ScalingAction, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, target_id, timestamp, direction, trigger_kind, resource_type,
			   from_count, to_count, reason, cost_impact, success, error_message, duration_ms
		FROM scaling_actions
		ORDER BY timestamp DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanActions(rows)
}

type ActionStats struct {
	TargetID       string    `json:"target_id"`
	From           time.Time `json:"from"`
	To             time.Time `json:"to"`
	ScaleUpCount   int       `json:"scale_up_count"`
	ScaleDownCount int       `json:"scale_down_count"`
	SuccessCount   int       `json:"success_count"`
	FailedCount    int       `json:"failed_count"`
}

func (r *ActionRepository) GetStats(ctx context.Context, targetID string, from, to time.Time) (*ActionStats, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE direction = 'up') AS scale_up_count,
			COUNT(*) FILTER (WHERE direction = 'down') AS scale_down_count,
			COUNT(*) FILTER (WHERE success) AS success_count,
			COUNT(*) FILTER (WHERE NOT success) AS failed_count
		FROM scaling_actions
		WHERE target_id = $1 AND timestamp >= $2 AND timestamp <= $3`

	var stats ActionStats
	err := r.db.QueryRowContext(ctx, query, targetID, from, to).Scan(
		&stats.ScaleUpCount, &stats.ScaleDownCount,
		&stats.SuccessCount, &stats.FailedCount,
	)
	if err != nil {
		return nil, err
	}

	stats.TargetID = targetID
	stats.From = from
	stats.To = to

	return &stats, nil
}

func scanActions(rows *sql.Rows) ([]*models.ScalingAction, error) {
	var actions []*models.ScalingAction
	for rows.Next() {
		var (
			a         models.ScalingAction
			direction string
			trigger   string
			errMsg    sql.NullString
		)
		err := rows.Scan(
			&a.ID, &a.TargetID, &a.Timestamp, &direction, &trigger,
			&a.ResourceType, &a.FromCount, &a.ToCount, &a.Reason,
			&a.CostImpactPerHour, &a.Success, &errMsg, &a.DurationMs,
		)
		if err != nil {
			return nil, err
		}
		a.Direction = models.ScalingDirection(direction)
		a.Trigger = models.ScalingTrigger(trigger)
		a.Error = errMsg.String
		actions = append(actions, &a)
	}
	return actions, rows.Err()
}
