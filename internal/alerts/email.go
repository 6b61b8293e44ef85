package alerts

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/shopspring/decimal"

	"github.com/rmachado/gestor/internal/locale"
	"github.com/rmachado/gestor/internal/models"
)

// Sender delivers one rendered alert email.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

const emailSubject = "Pagamentos pendentes"

// emailTemplate is the fixed daily alert layout. Sections render only
// when their bucket has items.
const emailTemplate = `<html>
<body style="font-family: sans-serif; color: #222;">
<h2>Pagamentos pendentes — {{.Date}}</h2>
{{if .Overdue}}<h3 style="color: #c0392b;">Em atraso</h3>
<ul>
{{range .Overdue}}<li>{{.Date}} — {{.Description}}{{if .Establishment}} ({{.Establishment}}){{end}}{{if .Amount}} — {{.Amount}}{{end}}</li>
{{end}}</ul>
{{end}}{{if .Today}}<h3>Hoje</h3>
<ul>
{{range .Today}}<li>{{.Date}} — {{.Description}}{{if .Establishment}} ({{.Establishment}}){{end}}{{if .Amount}} — {{.Amount}}{{end}}</li>
{{end}}</ul>
{{end}}{{if .Next7}}<h3>Próximos 7 dias</h3>
<ul>
{{range .Next7}}<li>{{.Date}} — {{.Description}}{{if .Establishment}} ({{.Establishment}}){{end}}{{if .Amount}} — {{.Amount}}{{end}}</li>
{{end}}</ul>
{{end}}</body>
</html>
`

var emailTmpl = template.Must(template.New("alerts").Parse(emailTemplate))

type emailItem struct {
	Date          string
	Description   string
	Establishment string
	Amount        string
}

type emailData struct {
	Date    string
	Overdue []emailItem
	Today   []emailItem
	Next7   []emailItem
}

// RenderEmail renders the alert report as the daily HTML email body.
func RenderEmail(report *models.AlertReport) (string, error) {
	data := emailData{
		Date:    locale.FormatDate(report.Date),
		Overdue: emailItems(report.Overdue, report.Currency),
		Today:   emailItems(report.Today, report.Currency),
		Next7:   emailItems(report.Next7, report.Currency),
	}
	var buf bytes.Buffer
	if err := emailTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render alert email: %w", err)
	}
	return buf.String(), nil
}

func emailItems(items []models.AlertItem, currency string) []emailItem {
	out := make([]emailItem, 0, len(items))
	for _, it := range items {
		e := emailItem{
			Date:          locale.FormatDate(it.Date),
			Description:   it.Description,
			Establishment: it.Establishment,
		}
		if !it.Amount.Equal(decimal.Zero) {
			e.Amount = locale.FormatAmount(it.Amount) + " " + currency
		}
		out = append(out, e)
	}
	return out
}

// SMTPSender sends mail through a plain SMTP relay.
type SMTPSender struct {
	Addr string // host:port
	From string
}

// Send delivers one HTML email. The context is accepted for interface
// symmetry; net/smtp does not support cancellation mid-dial.
func (s *SMTPSender) Send(_ context.Context, to, subject, htmlBody string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.From, to, subject, htmlBody)
	if err := smtp.SendMail(s.Addr, nil, s.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send alert email: %w", err)
	}
	return nil
}
