package services

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nirajmohabey/habit-tracker/mailer"
	"github.com/nirajmohabey/habit-tracker/models"
)

const notificationWorkers = 4

// NotificationJob is one email to one user.
type NotificationJob struct {
	User models.User
	Kind string // daily | weekly
}

// Dispatcher runs the periodic notification scan and the daily sweep on
// cron schedules. Clock and mailer are injected; duplicate sends under
// races are acceptable, reminder accuracy is not safety-critical.
type Dispatcher struct {
	DB      *gorm.DB
	Logger  *zap.Logger
	Mailer  mailer.Mailer
	Sweeper *Sweeper
	Now     func() time.Time

	notifySchedule string
	sweepSchedule  string
	cron           *cron.Cron
}

func NewDispatcher(database *gorm.DB, logger *zap.Logger, m mailer.Mailer, sweeper *Sweeper,
	notifySchedule, sweepSchedule string, now func() time.Time) *Dispatcher {
	if now == nil {
		now = time.Now
	}
	return &Dispatcher{
		DB:             database,
		Logger:         logger,
		Mailer:         m,
		Sweeper:        sweeper,
		Now:            now,
		notifySchedule: notifySchedule,
		sweepSchedule:  sweepSchedule,
	}
}

// Start registers the cron entries and launches the scheduler. The
// sweep also runs once immediately so a freshly booted server has a
// consistent log.
func (d *Dispatcher) Start() error {
	d.cron = cron.New()

	if _, err := d.cron.AddFunc(d.notifySchedule, d.Tick); err != nil {
		return err
	}
	if _, err := d.cron.AddFunc(d.sweepSchedule, func() {
		if err := d.Sweeper.Run(); err != nil {
			d.Logger.Error("sweep_failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	go func() {
		if err := d.Sweeper.Run(); err != nil {
			d.Logger.Error("sweep_failed", zap.Error(err))
		}
	}()

	d.cron.Start()
	d.Logger.Info("dispatcher_started",
		zap.String("notify_schedule", d.notifySchedule),
		zap.String("sweep_schedule", d.sweepSchedule),
	)
	return nil
}

func (d *Dispatcher) Stop() {
	if d.cron != nil {
		d.cron.Stop()
	}
}

// Tick scans preferences once: every enabled user whose notify time
// matches the current HH:MM gets a reminder and/or, on Sundays, the
// weekly summary.
func (d *Dispatcher) Tick() {
	now := d.Now().UTC()
	hhmm := now.Format("15:04")

	var users []models.User
	err := d.DB.Where("notify_enabled = ? AND notify_time = ?", true, hhmm).Find(&users).Error
	if err != nil {
		d.Logger.Error("notification_scan_failed", zap.Error(err))
		return
	}
	if len(users) == 0 {
		return
	}

	var jobs []NotificationJob
	for _, user := range users {
		freq := user.NotifyFrequency
		if freq == models.FrequencyDaily || freq == models.FrequencyBoth {
			jobs = append(jobs, NotificationJob{User: user, Kind: "daily"})
		}
		if (freq == models.FrequencyWeekly || freq == models.FrequencyBoth) && now.Weekday() == time.Sunday {
			jobs = append(jobs, NotificationJob{User: user, Kind: "weekly"})
		}
	}

	d.Dispatch(jobs)
}

// Dispatch fans jobs out over a small worker pool and tallies the
// outcome. Failures are logged, never fatal.
func (d *Dispatcher) Dispatch(jobs []NotificationJob) {
	if len(jobs) == 0 {
		return
	}

	jobChan := make(chan NotificationJob, len(jobs))
	resultChan := make(chan error, len(jobs))
	var wg sync.WaitGroup

	for i := 0; i < notificationWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobChan {
				resultChan <- d.send(job)
			}
		}()
	}

	for _, job := range jobs {
		jobChan <- job
	}
	close(jobChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	successCount := 0
	errorCount := 0
	for err := range resultChan {
		if err != nil {
			errorCount++
		} else {
			successCount++
		}
	}

	d.Logger.Info("notifications_processed",
		zap.Int("success", successCount),
		zap.Int("errors", errorCount),
	)
}

func (d *Dispatcher) send(job NotificationJob) error {
	switch job.Kind {
	case "weekly":
		rows, err := d.weeklyRows(job.User)
		if err != nil {
			d.Logger.Error("weekly_summary_failed",
				zap.String("user_id", job.User.ID.String()),
				zap.Error(err),
			)
			return err
		}
		return d.Mailer.SendWeeklySummary(job.User.Email, job.User.Username, rows)
	default:
		pending, err := d.pendingToday(job.User)
		if err != nil {
			d.Logger.Error("daily_reminder_failed",
				zap.String("user_id", job.User.ID.String()),
				zap.Error(err),
			)
			return err
		}
		return d.Mailer.SendDailyReminder(job.User.Email, job.User.Username, pending)
	}
}

// pendingToday lists the user's habits without a completed log today.
func (d *Dispatcher) pendingToday(user models.User) ([]string, error) {
	today := models.DateOnly(d.Now().UTC())

	var habits []models.Habit
	if err := d.DB.Where("user_id = ?", user.ID).Order("created_at").Find(&habits).Error; err != nil {
		return nil, err
	}

	var doneLogs []models.HabitLog
	err := d.DB.Where("user_id = ? AND date = ? AND completed = ?", user.ID, today, true).
		Find(&doneLogs).Error
	if err != nil {
		return nil, err
	}
	done := make(map[string]bool, len(doneLogs))
	for _, log := range doneLogs {
		done[log.HabitID.String()] = true
	}

	var pending []string
	for _, habit := range habits {
		if !done[habit.ID.String()] {
			pending = append(pending, habit.Emoji+" "+habit.Name)
		}
	}
	return pending, nil
}

// weeklyRows counts completions per habit over the trailing 7 days.
func (d *Dispatcher) weeklyRows(user models.User) ([]mailer.SummaryRow, error) {
	today := models.DateOnly(d.Now().UTC())
	weekAgo := today.AddDate(0, 0, -6)

	var habits []models.Habit
	if err := d.DB.Where("user_id = ?", user.ID).Order("created_at").Find(&habits).Error; err != nil {
		return nil, err
	}

	rows := make([]mailer.SummaryRow, 0, len(habits))
	for _, habit := range habits {
		var completed int64
		err := d.DB.Model(&models.HabitLog{}).
			Where("user_id = ? AND habit_id = ? AND completed = ? AND date >= ? AND date <= ?",
				user.ID, habit.ID, true, weekAgo, today).
			Count(&completed).Error
		if err != nil {
			return nil, err
		}
		rows = append(rows, mailer.SummaryRow{
			Name:      habit.Name,
			Emoji:     habit.Emoji,
			Completed: int(completed),
		})
	}
	return rows, nil
}
