package services

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nirajmohabey/habit-tracker/models"
)

// longestStreakLookback bounds the window scanned for the longest
// streak.
const longestStreakLookback = 60

// insightCap is the maximum number of insights returned.
const insightCap = 4

// Stats computes derived numbers from the completion log. Now is
// injectable so tests can pin the calendar.
type Stats struct {
	DB     *gorm.DB
	Logger *zap.Logger
	Now    func() time.Time
}

func NewStats(database *gorm.DB, logger *zap.Logger, now func() time.Time) *Stats {
	if now == nil {
		now = time.Now
	}
	return &Stats{DB: database, Logger: logger, Now: now}
}

type HabitStat struct {
	HabitID    uuid.UUID `json:"habit_id"`
	Name       string    `json:"name"`
	Emoji      string    `json:"emoji"`
	Category   string    `json:"category"`
	Completed  int       `json:"completed"`
	Goal       int       `json:"goal"`
	Remaining  int       `json:"remaining"`
	Percentage float64   `json:"percentage"`
}

type CategoryStat struct {
	Category   string  `json:"category"`
	Completed  int     `json:"completed"`
	Goal       int     `json:"goal"`
	Percentage float64 `json:"percentage"`
}

type MonthlyStats struct {
	Habits     []HabitStat    `json:"habits"`
	Categories []CategoryStat `json:"categories"`
}

type HabitStreaks struct {
	HabitID       uuid.UUID `json:"habit_id"`
	Name          string    `json:"name"`
	Emoji         string    `json:"emoji"`
	CurrentStreak int       `json:"current_streak"`
	LongestStreak int       `json:"longest_streak"`
}

type ScorecardRange struct {
	Label     string `json:"label"`
	FromDay   int    `json:"from_day"`
	ToDay     int    `json:"to_day"`
	Completed int    `json:"completed"`
}

type HabitScorecard struct {
	HabitID uuid.UUID        `json:"habit_id"`
	Name    string           `json:"name"`
	Emoji   string           `json:"emoji"`
	Ranges  []ScorecardRange `json:"ranges"`
}

type Badge struct {
	HabitID   uuid.UUID `json:"habit_id"`
	HabitName string    `json:"habit_name"`
	Kind      string    `json:"kind"` // completion | streak
	Name      string    `json:"name"`
	Threshold int       `json:"threshold"`
}

type Insight struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// MonthlyStats aggregates the current month: per-habit completed count,
// effective goal, remaining, one-decimal percentage, plus a category
// rollup.
func (s *Stats) MonthlyStats(userID uuid.UUID) (*MonthlyStats, error) {
	now := s.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	nextMonth := monthStart.AddDate(0, 1, 0)

	var habits []models.Habit
	if err := s.DB.Where("user_id = ?", userID).Order("created_at").Find(&habits).Error; err != nil {
		return nil, err
	}

	result := &MonthlyStats{Habits: make([]HabitStat, 0, len(habits))}
	categoryOrder := []string{}
	categoryTotals := map[string]*CategoryStat{}

	for _, habit := range habits {
		var completed int64
		err := s.DB.Model(&models.HabitLog{}).
			Where("user_id = ? AND habit_id = ? AND date >= ? AND date < ? AND completed = ?",
				userID, habit.ID, monthStart, nextMonth, true).
			Count(&completed).Error
		if err != nil {
			return nil, err
		}

		goal := effectiveGoal(habit, now)
		remaining := goal - int(completed)
		if remaining < 0 {
			remaining = 0
		}

		result.Habits = append(result.Habits, HabitStat{
			HabitID:    habit.ID,
			Name:       habit.Name,
			Emoji:      habit.Emoji,
			Category:   habit.Category,
			Completed:  int(completed),
			Goal:       goal,
			Remaining:  remaining,
			Percentage: percentage(int(completed), goal),
		})

		category := habit.Category
		if category == "" {
			category = "Other"
		}
		if _, ok := categoryTotals[category]; !ok {
			categoryTotals[category] = &CategoryStat{Category: category}
			categoryOrder = append(categoryOrder, category)
		}
		categoryTotals[category].Completed += int(completed)
		categoryTotals[category].Goal += goal
	}

	for _, category := range categoryOrder {
		stat := categoryTotals[category]
		stat.Percentage = percentage(stat.Completed, stat.Goal)
		result.Categories = append(result.Categories, *stat)
	}

	return result, nil
}

// Streaks computes, per habit, the current streak (walk back day by day
// from today, stopping at the first date without a completed log) and
// the longest streak inside the 60-day lookback.
func (s *Stats) Streaks(userID uuid.UUID) ([]HabitStreaks, error) {
	now := s.Now().UTC()
	today := models.DateOnly(now)

	var habits []models.Habit
	if err := s.DB.Where("user_id = ?", userID).Order("created_at").Find(&habits).Error; err != nil {
		return nil, err
	}

	out := make([]HabitStreaks, 0, len(habits))
	for _, habit := range habits {
		// The walk back from today is unbounded, so every completed log
		// is loaded, not just a recent window.
		var logs []models.HabitLog
		err := s.DB.Where("user_id = ? AND habit_id = ? AND completed = ?",
			userID, habit.ID, true).
			Find(&logs).Error
		if err != nil {
			return nil, err
		}

		done := make(map[string]bool, len(logs))
		for _, log := range logs {
			done[dayKey(log.Date)] = true
		}

		current := 0
		for d := today; done[dayKey(d)]; d = d.AddDate(0, 0, -1) {
			current++
		}

		longest := 0
		run := 0
		for i := longestStreakLookback - 1; i >= 0; i-- {
			if done[dayKey(today.AddDate(0, 0, -i))] {
				run++
				if run > longest {
					longest = run
				}
			} else {
				run = 0
			}
		}

		out = append(out, HabitStreaks{
			HabitID:       habit.ID,
			Name:          habit.Name,
			Emoji:         habit.Emoji,
			CurrentStreak: current,
			LongestStreak: longest,
		})
	}

	return out, nil
}

// scorecardBounds are the fixed day-of-month windows.
var scorecardBounds = [][2]int{{1, 7}, {8, 14}, {15, 21}, {22, 28}, {29, 31}}

// Scorecard counts completions per habit in the fixed weekly windows of
// the given month.
func (s *Stats) Scorecard(userID uuid.UUID, year int, month time.Month) ([]HabitScorecard, error) {
	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	nextMonth := monthStart.AddDate(0, 1, 0)
	lastDay := nextMonth.AddDate(0, 0, -1).Day()

	var habits []models.Habit
	if err := s.DB.Where("user_id = ?", userID).Order("created_at").Find(&habits).Error; err != nil {
		return nil, err
	}

	out := make([]HabitScorecard, 0, len(habits))
	for _, habit := range habits {
		var logs []models.HabitLog
		err := s.DB.Where("user_id = ? AND habit_id = ? AND completed = ? AND date >= ? AND date < ?",
			userID, habit.ID, true, monthStart, nextMonth).
			Find(&logs).Error
		if err != nil {
			return nil, err
		}

		card := HabitScorecard{HabitID: habit.ID, Name: habit.Name, Emoji: habit.Emoji}
		// All five ranges are always emitted; in February the last one
		// collapses to an empty window so the response shape is stable.
		for _, bounds := range scorecardBounds {
			from, to := bounds[0], bounds[1]
			if to > lastDay {
				to = lastDay
			}
			r := ScorecardRange{
				Label:   fmt.Sprintf("%d-%d", from, to),
				FromDay: from,
				ToDay:   to,
			}
			for _, log := range logs {
				day := log.Date.Day()
				if day >= from && day <= to {
					r.Completed++
				}
			}
			card.Ranges = append(card.Ranges, r)
		}
		out = append(out, card)
	}

	return out, nil
}

var completionBadges = []struct {
	threshold int
	name      string
}{
	{60, "Bronze"},
	{75, "Silver"},
	{90, "Gold"},
}

var streakBadges = []struct {
	threshold int
	name      string
}{
	{7, "One Week"},
	{21, "Three Weeks"},
	{30, "One Month"},
}

// Badges derives the earned badge set from this month's percentages and
// current streaks. Nothing is stored; cutoffs are fixed.
func (s *Stats) Badges(userID uuid.UUID) ([]Badge, error) {
	monthly, err := s.MonthlyStats(userID)
	if err != nil {
		return nil, err
	}
	streaks, err := s.Streaks(userID)
	if err != nil {
		return nil, err
	}

	badges := []Badge{}
	for _, stat := range monthly.Habits {
		for _, b := range completionBadges {
			if stat.Percentage >= float64(b.threshold) {
				badges = append(badges, Badge{
					HabitID:   stat.HabitID,
					HabitName: stat.Name,
					Kind:      "completion",
					Name:      b.name,
					Threshold: b.threshold,
				})
			}
		}
	}
	for _, streak := range streaks {
		for _, b := range streakBadges {
			if streak.CurrentStreak >= b.threshold {
				badges = append(badges, Badge{
					HabitID:   streak.HabitID,
					HabitName: streak.Name,
					Kind:      "streak",
					Name:      b.name,
					Threshold: b.threshold,
				})
			}
		}
	}

	return badges, nil
}

// Insights builds the prioritized observation list: today's count, the
// best habit, the overall tier, then an under-tracked recommendation.
func (s *Stats) Insights(userID uuid.UUID) ([]Insight, error) {
	now := s.Now().UTC()
	today := models.DateOnly(now)

	var todayCount int64
	err := s.DB.Model(&models.HabitLog{}).
		Where("user_id = ? AND date = ? AND completed = ?", userID, today, true).
		Count(&todayCount).Error
	if err != nil {
		return nil, err
	}

	insights := []Insight{}
	if todayCount > 0 {
		insights = append(insights, Insight{
			Kind:    "today",
			Message: fmt.Sprintf("You've completed %d habit(s) today. Keep it going!", todayCount),
		})
	} else {
		insights = append(insights, Insight{
			Kind:    "today",
			Message: "Nothing checked off yet today. Start with the easiest one.",
		})
	}

	monthly, err := s.MonthlyStats(userID)
	if err != nil {
		return nil, err
	}

	if best := bestHabit(monthly.Habits); best != nil {
		insights = append(insights, Insight{
			Kind:    "best_habit",
			Message: fmt.Sprintf("%s %s is your strongest habit this month at %.1f%%.", best.Emoji, best.Name, best.Percentage),
		})
	}

	if len(monthly.Habits) > 0 {
		total := 0.0
		for _, h := range monthly.Habits {
			total += h.Percentage
		}
		overall := total / float64(len(monthly.Habits))
		insights = append(insights, Insight{Kind: "overall", Message: overallMessage(overall)})
	}

	if worst := leastTracked(monthly.Habits); worst != nil && len(monthly.Habits) > 1 {
		insights = append(insights, Insight{
			Kind:    "recommendation",
			Message: fmt.Sprintf("%s %s could use some attention: only %d completion(s) so far.", worst.Emoji, worst.Name, worst.Completed),
		})
	}

	if len(insights) > insightCap {
		insights = insights[:insightCap]
	}
	return insights, nil
}

func bestHabit(stats []HabitStat) *HabitStat {
	var best *HabitStat
	for i := range stats {
		if stats[i].Completed == 0 {
			continue
		}
		if best == nil || stats[i].Percentage > best.Percentage {
			best = &stats[i]
		}
	}
	return best
}

func leastTracked(stats []HabitStat) *HabitStat {
	var worst *HabitStat
	for i := range stats {
		if worst == nil || stats[i].Completed < worst.Completed {
			worst = &stats[i]
		}
	}
	return worst
}

func overallMessage(overall float64) string {
	switch {
	case overall >= 90:
		return fmt.Sprintf("Exceptional month: %.1f%% overall completion.", overall)
	case overall >= 75:
		return fmt.Sprintf("Strong month: %.1f%% overall completion.", overall)
	case overall >= 60:
		return fmt.Sprintf("Solid progress: %.1f%% overall completion.", overall)
	default:
		return fmt.Sprintf("Overall completion is %.1f%%. Pick one habit and rebuild momentum.", overall)
	}
}

// effectiveGoal resolves a habit's monthly target: an explicit goal
// wins, otherwise every day of ref's month.
func effectiveGoal(habit models.Habit, ref time.Time) int {
	if habit.Goal > 0 {
		return habit.Goal
	}
	monthStart := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC)
	return monthStart.AddDate(0, 1, -1).Day()
}

// percentage is completed/goal*100, clamped non-negative, one decimal.
func percentage(completed, goal int) float64 {
	if goal <= 0 {
		return 0
	}
	p := float64(completed) / float64(goal) * 100
	if p < 0 {
		p = 0
	}
	return math.Round(p*10) / 10
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
