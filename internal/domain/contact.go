package domain

import (
	"context"
	"strings"
	"time"
)

// ContactRequest represents a quote request submitted from the site's contact form.
// Field names are the ones the frontend already posts.
type ContactRequest struct {
	Nombre     string `json:"nombre" validate:"required"`
	Email      string `json:"email" validate:"required,contact_email"`
	TipoEvento string `json:"tipoEvento" validate:"required"`
	Fecha      string `json:"fecha" validate:"required"`
	Mensaje    string `json:"mensaje" validate:"required"`
}

// Normalize trims surrounding whitespace from every field in place.
func (r *ContactRequest) Normalize() {
	r.Nombre = strings.TrimSpace(r.Nombre)
	r.Email = strings.TrimSpace(r.Email)
	r.TipoEvento = strings.TrimSpace(r.TipoEvento)
	r.Fecha = strings.TrimSpace(r.Fecha)
	r.Mensaje = strings.TrimSpace(r.Mensaje)
}

// eventTypeLabels is read-only after init.
var eventTypeLabels = map[string]string{
	"cumpleanos":  "Fiesta de cumpleaños",
	"corporativo": "Evento corporativo",
	"matrimonio":  "Matrimonio",
	"graduacion":  "Graduación",
	"festival":    "Festival / Fiesta masiva",
	"privado":     "Evento privado",
	"otro":        "Otro",
}

// EventTypeLabel returns the display label for an event type code.
// Unknown codes are returned unchanged.
func EventTypeLabel(code string) string {
	if label, ok := eventTypeLabels[code]; ok {
		return label
	}
	return code
}

// FormatEventDate turns "YYYY-MM-DD" into "DD/MM/YYYY" for display.
// It is a plain string transform: no calendar check, missing parts become empty.
func FormatEventDate(date string) string {
	parts := strings.Split(date, "-")
	part := func(i int) string {
		if i < len(parts) {
			return parts[i]
		}
		return ""
	}
	return part(2) + "/" + part(1) + "/" + part(0)
}

// QuoteNotification is everything the owner notification needs.
type QuoteNotification struct {
	Nombre      string
	Email       string
	TipoLabel   string
	FechaEvento string // DD/MM/YYYY
	Mensaje     string
	ReceivedAt  time.Time
}

// ContactUsecase defines the interface for contact form operations
type ContactUsecase interface {
	// SubmitQuote validates the request and runs the optional side effects.
	// Only validation failures are returned; storage and email failures are logged.
	SubmitQuote(ctx context.Context, req *ContactRequest) error
}

// QuoteNotifier sends the owner notification and waits for delivery.
type QuoteNotifier interface {
	NotifyQuote(ctx context.Context, n QuoteNotification) error
}
