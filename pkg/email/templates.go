package email

import (
	"bytes"
	"fmt"
	"html/template"
)

// QuoteEmailData holds the data for the owner notification
type QuoteEmailData struct {
	TipoLabel    string
	Nombre       string
	Email        string
	FechaEvento  string // DD/MM/YYYY
	Mensaje      string
	ReceivedDate string // DD-MM-YYYY, es-CL style
	SiteDomain   string
}

// quoteEmailTemplate is the HTML template for new quote notifications
const quoteEmailTemplate = `<div style="font-family:'Segoe UI',Arial,sans-serif;max-width:600px;margin:0 auto;background:#050a15;border-radius:16px;overflow:hidden;border:1px solid rgba(74,122,255,0.15);">
  <div style="background:linear-gradient(135deg,rgba(74,122,255,0.15),rgba(168,85,247,0.1));padding:32px 32px 24px;text-align:center;border-bottom:1px solid rgba(255,255,255,0.06);">
    <div style="font-size:28px;margin-bottom:8px;">⚡</div>
    <h1 style="margin:0;font-size:22px;font-weight:800;color:#fff;letter-spacing:-0.02em;">SUBSONIC PRODUCCIONES</h1>
    <p style="margin:8px 0 0;font-size:13px;color:rgba(255,255,255,0.4);letter-spacing:0.05em;">NUEVA COTIZACIÓN</p>
  </div>
  <div style="padding:24px 32px 0;text-align:center;">
    <span style="display:inline-block;background:linear-gradient(135deg,#4a7aff,#a855f7);color:#fff;font-size:13px;font-weight:700;padding:6px 20px;border-radius:20px;letter-spacing:0.03em;">{{.TipoLabel}}</span>
  </div>
  <div style="padding:24px 32px;">
    <table style="width:100%;border-collapse:collapse;">
      <tr>
        <td style="padding:14px 12px;font-size:12px;font-weight:600;color:rgba(255,255,255,0.4);text-transform:uppercase;letter-spacing:0.06em;border-bottom:1px solid rgba(255,255,255,0.06);width:140px;">Nombre</td>
        <td style="padding:14px 12px;font-size:15px;color:#fff;border-bottom:1px solid rgba(255,255,255,0.06);">{{.Nombre}}</td>
      </tr>
      <tr>
        <td style="padding:14px 12px;font-size:12px;font-weight:600;color:rgba(255,255,255,0.4);text-transform:uppercase;letter-spacing:0.06em;border-bottom:1px solid rgba(255,255,255,0.06);width:140px;">Email</td>
        <td style="padding:14px 12px;font-size:15px;border-bottom:1px solid rgba(255,255,255,0.06);"><a href="mailto:{{.Email}}" style="color:#4a7aff;text-decoration:none;">{{.Email}}</a></td>
      </tr>
      <tr>
        <td style="padding:14px 12px;font-size:12px;font-weight:600;color:rgba(255,255,255,0.4);text-transform:uppercase;letter-spacing:0.06em;border-bottom:1px solid rgba(255,255,255,0.06);width:140px;">Fecha del Evento</td>
        <td style="padding:14px 12px;font-size:15px;color:#fff;border-bottom:1px solid rgba(255,255,255,0.06);">📅 {{.FechaEvento}}</td>
      </tr>
      <tr>
        <td style="padding:14px 12px;font-size:12px;font-weight:600;color:rgba(255,255,255,0.4);text-transform:uppercase;letter-spacing:0.06em;border-bottom:1px solid rgba(255,255,255,0.06);width:140px;vertical-align:top;">Mensaje</td>
        <td style="padding:14px 12px;font-size:15px;color:rgba(255,255,255,0.8);border-bottom:1px solid rgba(255,255,255,0.06);line-height:1.6;">{{.Mensaje}}</td>
      </tr>
    </table>
  </div>
  <div style="padding:16px 32px 24px;text-align:center;border-top:1px solid rgba(255,255,255,0.06);">
    <p style="margin:0 0 4px;font-size:11px;color:rgba(255,255,255,0.25);">Solicitud recibida el {{.ReceivedDate}} · {{.SiteDomain}}</p>
  </div>
</div>`

var quoteTemplate = template.Must(template.New("quote").Parse(quoteEmailTemplate))

// QuoteSubject is the notification subject line for an event label.
func QuoteSubject(tipoLabel string) string {
	return fmt.Sprintf("⚡ Nueva Cotización — %s", tipoLabel)
}

// RenderQuoteEmail executes the notification template. Field values are HTML-escaped.
func RenderQuoteEmail(data QuoteEmailData) (string, error) {
	var body bytes.Buffer
	if err := quoteTemplate.Execute(&body, data); err != nil {
		return "", fmt.Errorf("failed to execute email template: %w", err)
	}
	return body.String(), nil
}
