// Package mailer renders and delivers the transactional emails. Delivery is
// best-effort and runs off the request path: sends are queued onto a
// buffered channel drained by one worker goroutine, and failures are logged
// but never surfaced to the caller.
package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
	"strings"
	"sync"

	"shopper-backend/internal/config"
	"shopper-backend/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

const queueSize = 64

type Mailer interface {
	SendWelcome(email, name string)
	SendPasswordReset(email, name string)
	SendOrderConfirmation(email, name string, order *model.Order)
	Close()
}

type message struct {
	to       string
	subject  string
	template string
	data     map[string]interface{}
}

type smtpMailer struct {
	cfg       config.SMTP
	baseURL   string
	log       *slog.Logger
	templates *template.Template

	jobs chan message
	wg   sync.WaitGroup

	// swapped out in tests
	send func(to, subject, htmlBody string) error
}

func NewMailer(cfg config.SMTP, baseURL string, log *slog.Logger) Mailer {
	m := &smtpMailer{
		cfg:       cfg,
		baseURL:   baseURL,
		log:       log,
		templates: template.Must(template.ParseFS(templateFS, "templates/*.html")),
		jobs:      make(chan message, queueSize),
	}
	m.send = m.smtpSend

	m.wg.Add(1)
	go m.worker()

	return m
}

func (m *smtpMailer) SendWelcome(email, name string) {
	m.enqueue(message{
		to:       email,
		subject:  "Welcome to Shopper!",
		template: "welcome.html",
		data: map[string]interface{}{
			"UserName": name,
			"Link":     m.baseURL + "/",
		},
	})
}

func (m *smtpMailer) SendPasswordReset(email, name string) {
	m.enqueue(message{
		to:       email,
		subject:  "Reset your Password",
		template: "password_reset.html",
		data: map[string]interface{}{
			"UserName": name,
			"Link":     fmt.Sprintf("%s/reset-password?email=%s", m.baseURL, email),
		},
	})
}

func (m *smtpMailer) SendOrderConfirmation(email, name string, order *model.Order) {
	m.enqueue(message{
		to:       email,
		subject:  "Thank you for your order",
		template: "order_confirmation.html",
		data: map[string]interface{}{
			"UserName":   name,
			"OrderID":    order.ID,
			"Items":      order.Items,
			"TotalPrice": order.TotalPrice,
			"Link":       m.baseURL + "/profile/orders",
		},
	})
}

func (m *smtpMailer) Close() {
	close(m.jobs)
	m.wg.Wait()
}

func (m *smtpMailer) enqueue(msg message) {
	select {
	case m.jobs <- msg:
	default:
		m.log.Warn("mail queue full, dropping message", "to", msg.to, "template", msg.template)
	}
}

func (m *smtpMailer) worker() {
	defer m.wg.Done()
	for msg := range m.jobs {
		if err := m.deliver(msg); err != nil {
			m.log.Error("send email", "to", msg.to, "template", msg.template, "error", err)
		}
	}
}

func (m *smtpMailer) deliver(msg message) error {
	var body bytes.Buffer
	if err := m.templates.ExecuteTemplate(&body, msg.template, msg.data); err != nil {
		return fmt.Errorf("render template %s: %w", msg.template, err)
	}

	return m.send(msg.to, msg.subject, body.String())
}

func (m *smtpMailer) smtpSend(to, subject, htmlBody string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", m.cfg.FromName, m.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)

	addr := m.cfg.Host + ":" + m.cfg.Port
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)

	return smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(b.String()))
}
