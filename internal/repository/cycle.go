package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/piriram/pilling-backend/pkg/model"
)

// Sentinel errors surfaced to services so they can degrade gracefully
// before the adherence core is ever invoked.
var (
	ErrCycleNotFound = errors.New("cycle not found")
	ErrDoseNotFound  = errors.New("dose not found")
)

// CycleRepository manages cycle and scheduled-dose data
type CycleRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewCycleRepository creates a new CycleRepository
func NewCycleRepository(db *pgxpool.Pool, logger *zap.Logger) *CycleRepository {
	return &CycleRepository{
		db:     db,
		logger: logger,
	}
}

// CreateCycle inserts a cycle and all its scheduled doses in one transaction
func (r *CycleRepository) CreateCycle(ctx context.Context, cycle *model.Cycle) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	cycleQuery := `
		INSERT INTO cycles (
			id, user_id, start_date, active_days, rest_days,
			intake_minutes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	`

	_, err = tx.Exec(ctx, cycleQuery,
		cycle.ID,
		cycle.UserID,
		cycle.StartDate,
		cycle.ActiveDays,
		cycle.RestDays,
		cycle.IntakeMinutes,
	)
	if err != nil {
		r.logger.Error("failed to create cycle",
			zap.Error(err),
			zap.String("cycle_id", cycle.ID),
			zap.String("user_id", cycle.UserID),
		)
		return fmt.Errorf("failed to create cycle: %w", err)
	}

	doseQuery := `
		INSERT INTO scheduled_doses (
			id, cycle_id, day_number, scheduled_at, taken_at,
			took_double, note, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	`

	for i := range cycle.Doses {
		d := &cycle.Doses[i]
		_, err = tx.Exec(ctx, doseQuery,
			d.ID,
			d.CycleID,
			d.DayNumber,
			d.ScheduledAt,
			d.TakenAt,
			d.TookDouble,
			d.Note,
		)
		if err != nil {
			r.logger.Error("failed to create scheduled dose",
				zap.Error(err),
				zap.String("cycle_id", cycle.ID),
				zap.Int("day_number", d.DayNumber),
			)
			return fmt.Errorf("failed to create scheduled dose: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit cycle creation: %w", err)
	}

	return nil
}

// FindByID retrieves a cycle with its doses ordered by day number
func (r *CycleRepository) FindByID(ctx context.Context, cycleID string) (*model.Cycle, error) {
	query := `
		SELECT id, user_id, start_date, active_days, rest_days,
		       intake_minutes, created_at, updated_at
		FROM cycles
		WHERE id = $1
	`

	var cycle model.Cycle
	err := r.db.QueryRow(ctx, query, cycleID).Scan(
		&cycle.ID,
		&cycle.UserID,
		&cycle.StartDate,
		&cycle.ActiveDays,
		&cycle.RestDays,
		&cycle.IntakeMinutes,
		&cycle.CreatedAt,
		&cycle.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrCycleNotFound
		}
		r.logger.Error("failed to find cycle", zap.Error(err), zap.String("cycle_id", cycleID))
		return nil, fmt.Errorf("failed to find cycle: %w", err)
	}

	doses, err := r.findDoses(ctx, cycle.ID)
	if err != nil {
		return nil, err
	}
	cycle.Doses = doses

	return &cycle, nil
}

// FindCurrentByUser retrieves the user's most recently started cycle
func (r *CycleRepository) FindCurrentByUser(ctx context.Context, userID string) (*model.Cycle, error) {
	query := `
		SELECT id, user_id, start_date, active_days, rest_days,
		       intake_minutes, created_at, updated_at
		FROM cycles
		WHERE user_id = $1
		ORDER BY start_date DESC, created_at DESC
		LIMIT 1
	`

	var cycle model.Cycle
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&cycle.ID,
		&cycle.UserID,
		&cycle.StartDate,
		&cycle.ActiveDays,
		&cycle.RestDays,
		&cycle.IntakeMinutes,
		&cycle.CreatedAt,
		&cycle.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrCycleNotFound
		}
		r.logger.Error("failed to find current cycle", zap.Error(err), zap.String("user_id", userID))
		return nil, fmt.Errorf("failed to find current cycle: %w", err)
	}

	doses, err := r.findDoses(ctx, cycle.ID)
	if err != nil {
		return nil, err
	}
	cycle.Doses = doses

	return &cycle, nil
}

// ListActiveOn retrieves all cycles whose day range contains the given date
func (r *CycleRepository) ListActiveOn(ctx context.Context, date time.Time) ([]model.Cycle, error) {
	query := `
		SELECT id, user_id, start_date, active_days, rest_days,
		       intake_minutes, created_at, updated_at
		FROM cycles
		WHERE start_date <= $1
		  AND start_date + (active_days + rest_days) * INTERVAL '1 day' > $1
		ORDER BY start_date
	`

	rows, err := r.db.Query(ctx, query, date)
	if err != nil {
		r.logger.Error("failed to list active cycles", zap.Error(err), zap.Time("date", date))
		return nil, fmt.Errorf("failed to list active cycles: %w", err)
	}
	defer rows.Close()

	var cycles []model.Cycle
	for rows.Next() {
		var cycle model.Cycle
		err := rows.Scan(
			&cycle.ID,
			&cycle.UserID,
			&cycle.StartDate,
			&cycle.ActiveDays,
			&cycle.RestDays,
			&cycle.IntakeMinutes,
			&cycle.CreatedAt,
			&cycle.UpdatedAt,
		)
		if err != nil {
			r.logger.Error("failed to scan cycle", zap.Error(err))
			continue
		}
		cycles = append(cycles, cycle)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating cycles", zap.Error(err))
		return nil, fmt.Errorf("error iterating cycles: %w", err)
	}

	for i := range cycles {
		doses, err := r.findDoses(ctx, cycles[i].ID)
		if err != nil {
			return nil, err
		}
		cycles[i].Doses = doses
	}

	return cycles, nil
}

// Delete deletes a cycle; scheduled doses cascade
func (r *CycleRepository) Delete(ctx context.Context, cycleID string) error {
	query := `DELETE FROM cycles WHERE id = $1`

	result, err := r.db.Exec(ctx, query, cycleID)
	if err != nil {
		r.logger.Error("failed to delete cycle",
			zap.Error(err),
			zap.String("cycle_id", cycleID),
		)
		return fmt.Errorf("failed to delete cycle: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrCycleNotFound
	}

	return nil
}

// FindDoseByID retrieves a single scheduled dose
func (r *CycleRepository) FindDoseByID(ctx context.Context, doseID string) (*model.ScheduledDose, error) {
	query := `
		SELECT id, cycle_id, day_number, scheduled_at, taken_at,
		       took_double, note, created_at, updated_at
		FROM scheduled_doses
		WHERE id = $1
	`

	var dose model.ScheduledDose
	err := r.db.QueryRow(ctx, query, doseID).Scan(
		&dose.ID,
		&dose.CycleID,
		&dose.DayNumber,
		&dose.ScheduledAt,
		&dose.TakenAt,
		&dose.TookDouble,
		&dose.Note,
		&dose.CreatedAt,
		&dose.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrDoseNotFound
		}
		r.logger.Error("failed to find dose", zap.Error(err), zap.String("dose_id", doseID))
		return nil, fmt.Errorf("failed to find dose: %w", err)
	}

	return &dose, nil
}

// UpdateDoseIntake persists the intake state of a dose
func (r *CycleRepository) UpdateDoseIntake(ctx context.Context, dose *model.ScheduledDose) error {
	query := `
		UPDATE scheduled_doses
		SET taken_at = $1, took_double = $2, updated_at = NOW()
		WHERE id = $3
	`

	result, err := r.db.Exec(ctx, query, dose.TakenAt, dose.TookDouble, dose.ID)
	if err != nil {
		r.logger.Error("failed to update dose intake",
			zap.Error(err),
			zap.String("dose_id", dose.ID),
		)
		return fmt.Errorf("failed to update dose intake: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrDoseNotFound
	}

	return nil
}

// UpdateDoseNote updates the free-text note on a dose
func (r *CycleRepository) UpdateDoseNote(ctx context.Context, doseID string, note *string) error {
	query := `
		UPDATE scheduled_doses
		SET note = $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.db.Exec(ctx, query, note, doseID)
	if err != nil {
		r.logger.Error("failed to update dose note",
			zap.Error(err),
			zap.String("dose_id", doseID),
		)
		return fmt.Errorf("failed to update dose note: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrDoseNotFound
	}

	return nil
}

// findDoses loads all doses of a cycle ordered by day number
func (r *CycleRepository) findDoses(ctx context.Context, cycleID string) ([]model.ScheduledDose, error) {
	query := `
		SELECT id, cycle_id, day_number, scheduled_at, taken_at,
		       took_double, note, created_at, updated_at
		FROM scheduled_doses
		WHERE cycle_id = $1
		ORDER BY day_number
	`

	rows, err := r.db.Query(ctx, query, cycleID)
	if err != nil {
		r.logger.Error("failed to find doses", zap.Error(err), zap.String("cycle_id", cycleID))
		return nil, fmt.Errorf("failed to find doses: %w", err)
	}
	defer rows.Close()

	var doses []model.ScheduledDose
	for rows.Next() {
		var dose model.ScheduledDose
		err := rows.Scan(
			&dose.ID,
			&dose.CycleID,
			&dose.DayNumber,
			&dose.ScheduledAt,
			&dose.TakenAt,
			&dose.TookDouble,
			&dose.Note,
			&dose.CreatedAt,
			&dose.UpdatedAt,
		)
		if err != nil {
			r.logger.Error("failed to scan dose", zap.Error(err))
			continue
		}
		doses = append(doses, dose)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating doses", zap.Error(err))
		return nil, fmt.Errorf("error iterating doses: %w", err)
	}

	return doses, nil
}
