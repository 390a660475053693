package mail

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const (
	subjectOTP   = "Your OTP Code"
	subjectReset = "Password Reset Request"
)

var otpTemplate = template.Must(template.New("otp").Parse(`# Verify your email

Your one-time code is **{{.Code}}**.

It is valid for {{.TTL}}. If you did not try to sign up, you can ignore this email.
`))

var resetTemplate = template.Must(template.New("reset").Parse(`# Reset your password

You requested a password reset. Follow the link below to choose a new password:

[Reset Password]({{.Link}})

This link will expire in {{.TTL}}.
`))

// Message is a rendered email: an HTML body and the markdown it came from,
// which doubles as the plain-text alternative.
type Message struct {
	Subject string
	Text    string
	HTML    string
}

// Renderer turns the markdown templates into HTML.
type Renderer struct {
	md goldmark.Markdown
}

func NewRenderer() *Renderer {
	return &Renderer{md: goldmark.New(goldmark.WithExtensions(extension.Linkify))}
}

func (r *Renderer) OTP(code string, ttl time.Duration) (Message, error) {
	return r.render(subjectOTP, otpTemplate, struct {
		Code string
		TTL  string
	}{code, humanDuration(ttl)})
}

func (r *Renderer) PasswordReset(link string, ttl time.Duration) (Message, error) {
	return r.render(subjectReset, resetTemplate, struct {
		Link string
		TTL  string
	}{link, humanDuration(ttl)})
}

func (r *Renderer) render(subject string, tmpl *template.Template, data any) (Message, error) {
	var src bytes.Buffer
	if err := tmpl.Execute(&src, data); err != nil {
		return Message{}, fmt.Errorf("execute %s template: %w", tmpl.Name(), err)
	}
	var html bytes.Buffer
	if err := r.md.Convert(src.Bytes(), &html); err != nil {
		return Message{}, fmt.Errorf("render %s template: %w", tmpl.Name(), err)
	}
	return Message{Subject: subject, Text: src.String(), HTML: html.String()}, nil
}

func humanDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	case d >= time.Minute && d%time.Minute == 0:
		return plural(int(d/time.Minute), "minute")
	default:
		return d.String()
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
