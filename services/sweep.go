package services

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nirajmohabey/habit-tracker/models"
	"github.com/nirajmohabey/habit-tracker/utils"
)

// Sweeper backfills missed days: any past date in the target month with
// no log gets an explicit completed=false record, which the toggle
// endpoint then treats as immutable.
type Sweeper struct {
	DB     *gorm.DB
	Logger *zap.Logger
	Now    func() time.Time
}

func NewSweeper(database *gorm.DB, logger *zap.Logger, now func() time.Time) *Sweeper {
	if now == nil {
		now = time.Now
	}
	return &Sweeper{DB: database, Logger: logger, Now: now}
}

// Run sweeps the current month for every habit and purges expired
// one-time codes and reset tokens.
func (s *Sweeper) Run() error {
	now := s.Now().UTC()
	if err := s.RunMonth(now.Year(), now.Month()); err != nil {
		return err
	}
	return s.PurgeExpired()
}

// RunMonth walks, for each habit, every date from max(habit creation,
// month start) to min(today, month end), exclusive, and records missing
// days as not completed. Existing logs are never modified. Logs dated
// after today that claim a miss are deleted defensively.
func (s *Sweeper) RunMonth(year int, month time.Month) error {
	today := models.DateOnly(s.Now().UTC())
	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	nextMonth := monthStart.AddDate(0, 1, 0)

	// A missed day can only be in the past; anything in the future is
	// a bug to clean up, never to create.
	if err := s.DB.Where("completed = ? AND date > ?", false, today).
		Delete(&models.HabitLog{}).Error; err != nil {
		return err
	}

	var habits []models.Habit
	if err := s.DB.Find(&habits).Error; err != nil {
		return err
	}

	end := today
	if nextMonth.Before(end) {
		end = nextMonth
	}

	marked := 0
	for _, habit := range habits {
		var logs []models.HabitLog
		err := s.DB.Where("habit_id = ? AND date >= ? AND date < ?", habit.ID, monthStart, nextMonth).
			Find(&logs).Error
		if err != nil {
			return err
		}

		present := make(map[string]bool, len(logs))
		for _, log := range logs {
			present[dayKey(log.Date)] = true
		}

		start := models.DateOnly(habit.CreatedAt)
		if start.Before(monthStart) {
			start = monthStart
		}

		var missing []models.HabitLog
		for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
			if present[dayKey(d)] {
				continue
			}
			missing = append(missing, models.HabitLog{
				UserID:    habit.UserID,
				HabitID:   habit.ID,
				Date:      d,
				Completed: false,
			})
		}

		if len(missing) > 0 {
			if err := s.DB.CreateInBatches(missing, 100).Error; err != nil {
				return err
			}
			marked += len(missing)
		}
	}

	if marked > 0 {
		utils.SweepMarked.Add(float64(marked))
	}
	s.Logger.Info("sweep_completed",
		zap.Int("year", year),
		zap.String("month", month.String()),
		zap.Int("days_marked", marked),
	)
	return nil
}

// PurgeExpired drops dead one-time codes and password reset tokens.
func (s *Sweeper) PurgeExpired() error {
	now := s.Now().UTC()
	if err := s.DB.Where("expires_at < ?", now).Delete(&models.OneTimeCode{}).Error; err != nil {
		return err
	}
	return s.DB.Where("expires_at < ?", now).Delete(&models.PasswordResetToken{}).Error
}
