package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification frequencies.
const (
	FrequencyDaily  = "daily"
	FrequencyWeekly = "weekly"
	FrequencyBoth   = "both"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string    `gorm:"size:80;uniqueIndex" json:"username"`
	Email        string    `gorm:"size:120;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"size:255" json:"-"`

	NotifyEnabled   bool   `gorm:"default:false" json:"notify_enabled"`
	NotifyTime      string `gorm:"size:5;default:'08:00'" json:"notify_time"`
	NotifyFrequency string `gorm:"size:10;default:'daily'" json:"notify_frequency"`

	CreatedAt time.Time  `json:"created_at"`
	Habits    []Habit    `gorm:"foreignKey:UserID" json:"-"`
	Logs      []HabitLog `gorm:"foreignKey:UserID" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

type Habit struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Name     string    `gorm:"size:100" json:"name"`
	Emoji    string    `gorm:"size:10" json:"emoji"`
	Category string    `gorm:"size:50" json:"category"`
	// Goal is the monthly completion target. Zero means "every day of
	// the month", resolved at aggregation time. No column default so a
	// zero goal survives the insert.
	Goal      int        `json:"goal"`
	CreatedAt time.Time  `json:"created_at"`
	Logs      []HabitLog `gorm:"foreignKey:HabitID" json:"-"`
}

func (h *Habit) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

// HabitLog is one per (user, habit, date). Date is stored as UTC midnight.
type HabitLog struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_user_habit_date" json:"user_id"`
	HabitID   uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_user_habit_date" json:"habit_id"`
	Date      time.Time `gorm:"uniqueIndex:idx_user_habit_date" json:"date"`
	Completed bool      `gorm:"default:false" json:"completed"`
	CreatedAt time.Time `json:"created_at"`
}

func (l *HabitLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// Session is a server-side login session referenced by an opaque cookie
// token. Logout deletes the row.
type Session struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Token     string    `gorm:"size:64;uniqueIndex" json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// OneTimeCode gates signup behind email verification. The pending
// account's credentials live here until the code is confirmed; no User
// row exists before that.
type OneTimeCode struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string    `gorm:"size:120;uniqueIndex" json:"email"`
	Code         string    `gorm:"size:6" json:"-"`
	Username     string    `gorm:"size:80" json:"username"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

func (o *OneTimeCode) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

type PasswordResetToken struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Token     string    `gorm:"size:64;uniqueIndex" json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (t *PasswordResetToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// DateOnly truncates t to midnight UTC, the canonical form for
// HabitLog.Date.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DefaultHabits is the starter set every new account receives.
func DefaultHabits(userID uuid.UUID) []Habit {
	return []Habit{
		{UserID: userID, Name: "Wake up at 6AM", Emoji: "⏰", Category: "Productivity", Goal: 30},
		{UserID: userID, Name: "No Snoozing", Emoji: "🔕", Category: "Productivity", Goal: 30},
		{UserID: userID, Name: "Drink 3L Water", Emoji: "💧", Category: "Health", Goal: 30},
		{UserID: userID, Name: "Gym Workout", Emoji: "💪", Category: "Fitness", Goal: 20},
		{UserID: userID, Name: "Stretching", Emoji: "🧘", Category: "Fitness", Goal: 30},
		{UserID: userID, Name: "Read 10 Pages", Emoji: "📚", Category: "Study", Goal: 30},
		{UserID: userID, Name: "Meditation", Emoji: "🧘‍♀️", Category: "Health", Goal: 30},
		{UserID: userID, Name: "Study 1 Hour", Emoji: "🎓", Category: "Study", Goal: 25},
		{UserID: userID, Name: "Skincare Routine", Emoji: "✨", Category: "Health", Goal: 30},
		{UserID: userID, Name: "Limit Social Media", Emoji: "📱", Category: "Productivity", Goal: 30},
		{UserID: userID, Name: "No Alcohol", Emoji: "🚫", Category: "Health", Goal: 30},
		{UserID: userID, Name: "Track Expenses", Emoji: "💰", Category: "Money", Goal: 30},
	}
}

// ValidFrequency reports whether f is an allowed notification frequency.
func ValidFrequency(f string) bool {
	return f == FrequencyDaily || f == FrequencyWeekly || f == FrequencyBoth
}
