package mailer

import (
	"fmt"
	"strings"
)

type message struct {
	subject string
	text    string
	html    string
}

const mimeBoundary = "habit-tracker-mime-boundary"

// buildMessage assembles a multipart/alternative body: plaintext first,
// HTML second, so clients pick the richest part they support.
func buildMessage(from, to string, msg message) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n", mimeBoundary)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", mimeBoundary)
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(msg.text)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", mimeBoundary)
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(msg.html)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s--\r\n", mimeBoundary)
	return []byte(b.String())
}

func wrapHTML(inner string) string {
	return `<html><body style="font-family: sans-serif; max-width: 600px; margin: 0 auto; padding: 10px;">` +
		inner + `</body></html>`
}

func verificationMessage(username, code string) message {
	return message{
		subject: "Your verification code",
		text: fmt.Sprintf(
			"Hi %s,\n\nYour verification code is: %s\n\nIt expires in 10 minutes. If you did not sign up, ignore this email.\n",
			username, code,
		),
		html: wrapHTML(fmt.Sprintf(
			`<h2>Hi %s,</h2><p>Your verification code is:</p><p style="font-size: 28px; letter-spacing: 4px;"><strong>%s</strong></p><p>It expires in 10 minutes. If you did not sign up, ignore this email.</p>`,
			username, code,
		)),
	}
}

func passwordResetMessage(username, resetURL string) message {
	return message{
		subject: "Reset your password",
		text: fmt.Sprintf(
			"Hi %s,\n\nSomeone requested a password reset for your account. Use the link below within one hour:\n\n%s\n\nIf this wasn't you, ignore this email.\n",
			username, resetURL,
		),
		html: wrapHTML(fmt.Sprintf(
			`<h2>Hi %s,</h2><p>Someone requested a password reset for your account. The link below is valid for one hour:</p><p><a href="%s">Reset password</a></p><p>If this wasn't you, ignore this email.</p>`,
			username, resetURL,
		)),
	}
}

func dailyReminderMessage(username string, pending []string) message {
	textList := "You have completed everything today. Nice work!"
	htmlList := "<p>You have completed everything today. Nice work!</p>"
	if len(pending) > 0 {
		textList = "Still open today:\n- " + strings.Join(pending, "\n- ")
		htmlList = "<p>Still open today:</p><ul><li>" + strings.Join(pending, "</li><li>") + "</li></ul>"
	}

	return message{
		subject: "Daily habit reminder",
		text:    fmt.Sprintf("Hi %s,\n\n%s\n", username, textList),
		html:    wrapHTML(fmt.Sprintf(`<h2>Hi %s,</h2>%s`, username, htmlList)),
	}
}

func weeklySummaryMessage(username string, rows []SummaryRow) message {
	var text strings.Builder
	var html strings.Builder
	fmt.Fprintf(&text, "Hi %s,\n\nYour last 7 days:\n", username)
	fmt.Fprintf(&html, "<h2>Hi %s,</h2><p>Your last 7 days:</p><table>", username)
	for _, r := range rows {
		fmt.Fprintf(&text, "  %s %s: %d/7\n", r.Emoji, r.Name, r.Completed)
		fmt.Fprintf(&html, "<tr><td>%s %s</td><td><strong>%d/7</strong></td></tr>", r.Emoji, r.Name, r.Completed)
	}
	html.WriteString("</table>")

	return message{
		subject: "Your weekly habit summary",
		text:    text.String(),
		html:    wrapHTML(html.String()),
	}
}
