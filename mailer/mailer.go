package mailer

import (
	"fmt"
	"net/smtp"

	"go.uber.org/zap"

	"github.com/nirajmohabey/habit-tracker/utils"
)

// SummaryRow is one habit line in the weekly summary email.
type SummaryRow struct {
	Name      string
	Emoji     string
	Completed int
}

// Mailer sends the application's transactional and scheduled emails.
// The dispatcher and handlers only see this interface, so tests inject
// a recording fake.
type Mailer interface {
	SendVerificationCode(to, username, code string) error
	SendPasswordReset(to, username, resetURL string) error
	SendDailyReminder(to, username string, pending []string) error
	SendWeeklySummary(to, username string, rows []SummaryRow) error
}

// SMTPMailer delivers through a plain SMTP relay.
type SMTPMailer struct {
	addr   string
	host   string
	auth   smtp.Auth
	from   string
	logger *zap.Logger
}

// New returns an SMTP-backed mailer, or a console mailer that logs the
// rendered message when no SMTP host is configured.
func New(host, port, user, password, from string, logger *zap.Logger) Mailer {
	if host == "" {
		logger.Info("mailer_console_mode")
		return &ConsoleMailer{logger: logger}
	}

	var auth smtp.Auth
	if user != "" {
		auth = smtp.PlainAuth("", user, password, host)
	}

	return &SMTPMailer{
		addr:   host + ":" + port,
		host:   host,
		auth:   auth,
		from:   from,
		logger: logger,
	}
}

func (m *SMTPMailer) send(kind, to string, msg message) error {
	body := buildMessage(m.from, to, msg)
	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, body); err != nil {
		m.logger.Error("email_send_failed",
			zap.String("kind", kind),
			zap.String("to", to),
			zap.Error(err),
		)
		return fmt.Errorf("send %s email: %w", kind, err)
	}
	utils.EmailsSent.WithLabelValues(kind).Inc()
	m.logger.Info("email_sent", zap.String("kind", kind), zap.String("to", to))
	return nil
}

func (m *SMTPMailer) SendVerificationCode(to, username, code string) error {
	return m.send("verification", to, verificationMessage(username, code))
}

func (m *SMTPMailer) SendPasswordReset(to, username, resetURL string) error {
	return m.send("password_reset", to, passwordResetMessage(username, resetURL))
}

func (m *SMTPMailer) SendDailyReminder(to, username string, pending []string) error {
	return m.send("daily_reminder", to, dailyReminderMessage(username, pending))
}

func (m *SMTPMailer) SendWeeklySummary(to, username string, rows []SummaryRow) error {
	return m.send("weekly_summary", to, weeklySummaryMessage(username, rows))
}

// ConsoleMailer writes rendered emails to the log instead of a relay.
type ConsoleMailer struct {
	logger *zap.Logger
}

func (m *ConsoleMailer) log(kind, to string, msg message) error {
	utils.EmailsSent.WithLabelValues(kind).Inc()
	m.logger.Info("email_console",
		zap.String("kind", kind),
		zap.String("to", to),
		zap.String("subject", msg.subject),
		zap.String("body", msg.text),
	)
	return nil
}

func (m *ConsoleMailer) SendVerificationCode(to, username, code string) error {
	return m.log("verification", to, verificationMessage(username, code))
}

func (m *ConsoleMailer) SendPasswordReset(to, username, resetURL string) error {
	return m.log("password_reset", to, passwordResetMessage(username, resetURL))
}

func (m *ConsoleMailer) SendDailyReminder(to, username string, pending []string) error {
	return m.log("daily_reminder", to, dailyReminderMessage(username, pending))
}

func (m *ConsoleMailer) SendWeeklySummary(to, username string, rows []SummaryRow) error {
	return m.log("weekly_summary", to, weeklySummaryMessage(username, rows))
}
