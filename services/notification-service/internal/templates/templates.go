// Package templates renders the plain-text reminder bodies. Template types
// match what reminder-service puts on the email request event.
package templates

import (
	"fmt"
	"strings"
	"text/template"
)

const (
	BookingReminder24h = "booking-reminder-24h"
	BookingReminder1h  = "booking-reminder-1h"
)

var registry = map[string]*template.Template{
	BookingReminder24h: template.Must(template.New(BookingReminder24h).Parse(
		`Hi {{.customer_name}},

This is a reminder that your appointment at {{.garage_name}} is tomorrow:

  {{.appointment_date}}
  {{.appointment_time}}
{{- if .services}}

Booked services:
{{- range .services}}
  - {{.}}
{{- end}}
{{- end}}

See you soon,
{{.garage_name}}
`)),
	BookingReminder1h: template.Must(template.New(BookingReminder1h).Parse(
		`Hi {{.customer_name}},

Your appointment at {{.garage_name}} starts in about an hour:

  {{.appointment_date}}
  {{.appointment_time}}

See you soon,
{{.garage_name}}
`)),
}

// Render produces the email body for a template type. Unknown types are an
// error; the caller records the notification as failed instead of guessing.
func Render(templateType string, data map[string]any) (string, error) {
	tmpl, ok := registry[templateType]
	if !ok {
		return "", fmt.Errorf("unknown template type %q", templateType)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
