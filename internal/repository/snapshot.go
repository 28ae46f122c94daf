package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/piriram/pilling-backend/pkg/model"
)

// SnapshotRepository manages persisted daily status evaluations
type SnapshotRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewSnapshotRepository creates a new SnapshotRepository
func NewSnapshotRepository(db *pgxpool.Pool, logger *zap.Logger) *SnapshotRepository {
	return &SnapshotRepository{
		db:     db,
		logger: logger,
	}
}

// Save upserts the snapshot for a cycle and date; re-running the daily
// job overwrites the previous evaluation for the same day.
func (r *SnapshotRepository) Save(ctx context.Context, snap *model.StatusSnapshot) error {
	query := `
		INSERT INTO status_snapshots (id, cycle_id, snapshot_date, category, missed_streak, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (cycle_id, snapshot_date)
		DO UPDATE SET category = EXCLUDED.category,
		              missed_streak = EXCLUDED.missed_streak
	`

	_, err := r.db.Exec(ctx, query,
		snap.ID,
		snap.CycleID,
		snap.SnapshotDate,
		snap.Category,
		snap.MissedStreak,
	)
	if err != nil {
		r.logger.Error("failed to save status snapshot",
			zap.Error(err),
			zap.String("cycle_id", snap.CycleID),
		)
		return fmt.Errorf("failed to save status snapshot: %w", err)
	}

	return nil
}

// ListByCycle retrieves snapshots for a cycle, newest first
func (r *SnapshotRepository) ListByCycle(ctx context.Context, cycleID string, limit int) ([]model.StatusSnapshot, error) {
	query := `
		SELECT id, cycle_id, snapshot_date, category, missed_streak, created_at
		FROM status_snapshots
		WHERE cycle_id = $1
		ORDER BY snapshot_date DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, cycleID, limit)
	if err != nil {
		r.logger.Error("failed to list status snapshots", zap.Error(err), zap.String("cycle_id", cycleID))
		return nil, fmt.Errorf("failed to list status snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []model.StatusSnapshot
	for rows.Next() {
		var snap model.StatusSnapshot
		err := rows.Scan(
			&snap.ID,
			&snap.CycleID,
			&snap.SnapshotDate,
			&snap.Category,
			&snap.MissedStreak,
			&snap.CreatedAt,
		)
		if err != nil {
			r.logger.Error("failed to scan status snapshot", zap.Error(err))
			continue
		}
		snaps = append(snaps, snap)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating status snapshots", zap.Error(err))
		return nil, fmt.Errorf("error iterating status snapshots: %w", err)
	}

	return snaps, nil
}
