package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nirajmohabey/habit-tracker/models"
)

func TestSweepMarksMissedDays(t *testing.T) {
	database := newTestDB(t)
	user := seedUser(t, database)
	created := time.Date(2026, time.August, 5, 9, 30, 0, 0, time.UTC)
	habit := seedHabit(t, database, user.ID, "Gym", 30, created)

	// Completed the 6th; every other day since creation is a gap.
	seedLog(t, database, user.ID, habit.ID, time.Date(2026, time.August, 6, 0, 0, 0, 0, time.UTC), true)

	sweeper := NewSweeper(database, zap.NewNop(), fixedClock)
	require.NoError(t, sweeper.RunMonth(2026, time.August))

	var logs []models.HabitLog
	require.NoError(t, database.Where("habit_id = ?", habit.ID).Order("date").Find(&logs).Error)

	// Days 5..24 minus the completed 6th, plus the 6th itself = 20 rows.
	// Today (the 25th) is never marked.
	require.Len(t, logs, 20)

	today := models.DateOnly(fixedClock())
	for _, log := range logs {
		require.True(t, log.Date.Before(today), "sweep marked %s, today is %s", log.Date, today)
		if log.Date.Day() == 6 {
			require.True(t, log.Completed)
		} else {
			require.False(t, log.Completed)
		}
	}
	// Nothing before the habit existed.
	require.Equal(t, 5, logs[0].Date.Day())
}

func TestSweepIsIdempotent(t *testing.T) {
	database := newTestDB(t)
	user := seedUser(t, database)
	created := time.Date(2026, time.August, 20, 0, 0, 0, 0, time.UTC)
	habit := seedHabit(t, database, user.ID, "Read", 30, created)

	sweeper := NewSweeper(database, zap.NewNop(), fixedClock)
	require.NoError(t, sweeper.RunMonth(2026, time.August))
	require.NoError(t, sweeper.RunMonth(2026, time.August))

	var count int64
	require.NoError(t, database.Model(&models.HabitLog{}).Where("habit_id = ?", habit.ID).Count(&count).Error)
	require.EqualValues(t, 5, count) // 20th through 24th
}

func TestSweepDeletesFutureMisses(t *testing.T) {
	database := newTestDB(t)
	user := seedUser(t, database)
	created := time.Date(2026, time.August, 24, 0, 0, 0, 0, time.UTC)
	habit := seedHabit(t, database, user.ID, "Gym", 30, created)

	future := time.Date(2026, time.August, 28, 0, 0, 0, 0, time.UTC)
	seedLog(t, database, user.ID, habit.ID, future, false)
	seedLog(t, database, user.ID, habit.ID, future.AddDate(0, 0, 1), true)

	sweeper := NewSweeper(database, zap.NewNop(), fixedClock)
	require.NoError(t, sweeper.RunMonth(2026, time.August))

	var logs []models.HabitLog
	require.NoError(t, database.Where("habit_id = ? AND date >= ?", habit.ID, future).Find(&logs).Error)
	// The future miss is gone; the completed future log is untouched.
	require.Len(t, logs, 1)
	require.True(t, logs[0].Completed)
}

func TestSweepPastMonthStopsAtMonthEnd(t *testing.T) {
	database := newTestDB(t)
	user := seedUser(t, database)
	created := time.Date(2026, time.July, 29, 0, 0, 0, 0, time.UTC)
	habit := seedHabit(t, database, user.ID, "Gym", 30, created)

	sweeper := NewSweeper(database, zap.NewNop(), fixedClock)
	require.NoError(t, sweeper.RunMonth(2026, time.July))

	var logs []models.HabitLog
	require.NoError(t, database.Where("habit_id = ?", habit.ID).Order("date").Find(&logs).Error)
	// July 29, 30, 31 and nothing bleeding into August.
	require.Len(t, logs, 3)
	require.Equal(t, time.July, logs[2].Date.Month())
	require.Equal(t, 31, logs[2].Date.Day())
}

func TestPurgeExpired(t *testing.T) {
	database := newTestDB(t)
	now := fixedClock()

	require.NoError(t, database.Create(&models.OneTimeCode{
		Email: "old@example.com", Code: "111111", Username: "old", PasswordHash: "x",
		ExpiresAt: now.Add(-time.Minute),
	}).Error)
	require.NoError(t, database.Create(&models.OneTimeCode{
		Email: "live@example.com", Code: "222222", Username: "live", PasswordHash: "x",
		ExpiresAt: now.Add(5 * time.Minute),
	}).Error)
	user := seedUser(t, database)
	require.NoError(t, database.Create(&models.PasswordResetToken{
		UserID: user.ID, Token: "dead", ExpiresAt: now.Add(-time.Hour),
	}).Error)

	sweeper := NewSweeper(database, zap.NewNop(), fixedClock)
	require.NoError(t, sweeper.PurgeExpired())

	var codes []models.OneTimeCode
	require.NoError(t, database.Find(&codes).Error)
	require.Len(t, codes, 1)
	require.Equal(t, "live@example.com", codes[0].Email)

	var tokens int64
	require.NoError(t, database.Model(&models.PasswordResetToken{}).Count(&tokens).Error)
	require.Zero(t, tokens)
}
