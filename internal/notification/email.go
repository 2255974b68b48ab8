package notification

import (
	"bytes"
	"fmt"
	"net/smtp"
	"strings"
	"text/template"
	"time"

	"github.com/smukkama/farm-report/internal/protocol"
	"github.com/smukkama/farm-report/pkg/config"
)

var summaryTemplate = template.Must(template.New("summary").Parse(`
Farm Regime Report
==================

Run: {{.RunID}}
Generated: {{.GeneratedAt.Format "2006-01-02 15:04 MST"}}
Samples analyzed: {{.TotalSamples}}
Report: {{.ReportPath}}

Patterns:
{{- range .Patterns}}
{{- if .Label}}
  Pattern {{.Pattern}} [{{.Label}}] {{.MemberCount}} samples
    {{.Narrative}}
{{- else}}
  Pattern {{.Pattern}} (no samples)
{{- end}}
{{- end}}

---
Farm Report Notification System
`))

// EmailNotifier sends email notifications
type EmailNotifier struct {
	config *config.SMTPConfig
}

// NewEmailNotifier creates a new email notifier
func NewEmailNotifier(cfg *config.SMTPConfig) *EmailNotifier {
	return &EmailNotifier{config: cfg}
}

// SendReportSummary emails the pattern summary of a generated report
func (e *EmailNotifier) SendReportSummary(ev *protocol.ReportEvent) error {
	subject, body, err := RenderReportSummary(ev)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}
	return e.sendEmail(subject, body)
}

// RenderReportSummary returns the subject and plain-text body for an event
func RenderReportSummary(ev *protocol.ReportEvent) (string, string, error) {
	var buf bytes.Buffer
	if err := summaryTemplate.Execute(&buf, ev); err != nil {
		return "", "", err
	}

	var labels []string
	for _, p := range ev.Patterns {
		if p.Label != "" {
			labels = append(labels, p.Label)
		}
	}
	subject := fmt.Sprintf("Farm report %s: %d samples", ev.GeneratedAt.Format("2006-01-02"), ev.TotalSamples)
	if len(labels) > 0 {
		subject += " (" + strings.Join(labels, ", ") + ")"
	}

	return subject, buf.String(), nil
}

func (e *EmailNotifier) sendEmail(subject, body string) error {
	// Skip sending if SMTP is not configured
	if e.config.Username == "" || e.config.Password == "" {
		fmt.Printf("SMTP not configured, skipping email:\nSubject: %s\n%s\n", subject, body)
		return nil
	}

	message := fmt.Sprintf("From: %s\r\n", e.config.From)
	message += fmt.Sprintf("To: %s\r\n", e.config.To)
	message += fmt.Sprintf("Subject: %s\r\n", subject)
	message += fmt.Sprintf("Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	message += "\r\n"
	message += body

	auth := smtp.PlainAuth("", e.config.Username, e.config.Password, e.config.Host)

	addr := fmt.Sprintf("%s:%d", e.config.Host, e.config.Port)
	err := smtp.SendMail(addr, auth, e.config.From, []string{e.config.To}, []byte(message))
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	fmt.Printf("Email sent successfully: %s\n", subject)
	return nil
}

// TestConnection tests the SMTP connection
func (e *EmailNotifier) TestConnection() error {
	if e.config.Username == "" {
		return fmt.Errorf("SMTP not configured")
	}

	addr := fmt.Sprintf("%s:%d", e.config.Host, e.config.Port)
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Close()

	fmt.Println("SMTP connection test successful")
	return nil
}
