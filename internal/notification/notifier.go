package notification

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
)

// Template names a transactional email.
type Template string

const (
	TemplateRegister       Template = "register"
	TemplateForgetPassword Template = "forget_password"
)

// Data is the template context. Both OTP templates read "otp_code" and
// "expire_minutes".
type Data map[string]any

// Notifier delivers a rendered template to a single recipient.
type Notifier interface {
	Send(ctx context.Context, to string, tmpl Template, data Data) error
}

// LogoFile is embedded with LogoCID, which the templates reference as cid:image1.
const (
	LogoFile = "gym-logo.webp"
	LogoCID  = "image1"
)

//go:embed templates/*.html
var templateFS embed.FS

var htmlTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type definition struct {
	subject string
	file    string
}

var definitions = map[Template]definition{
	TemplateRegister:       {subject: "Welcome to Gym Trainer", file: "register_email.html"},
	TemplateForgetPassword: {subject: "Forget Password @Gym Trainer", file: "forget_password_email.html"},
}

// Message is a rendered email.
type Message struct {
	Subject string
	Text    string
	HTML    string
}

func Render(tmpl Template, data Data) (*Message, error) {
	def, ok := definitions[tmpl]
	if !ok {
		return nil, fmt.Errorf("unknown email template %q", tmpl)
	}

	var html bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&html, def.file, data); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", def.file, err)
	}

	return &Message{
		Subject: def.subject,
		Text: fmt.Sprintf("Your One-Time Password (OTP) is: %v. It will expire in %v minutes.",
			data["otp_code"], data["expire_minutes"]),
		HTML: html.String(),
	}, nil
}
