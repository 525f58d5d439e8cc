package notify

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/pkordes/room-reservation/internal/domain"
)

// Email types stored in email_queues.email_type.
const (
	TypeConfirmation            = "confirmation"
	TypeReservationCancellation = "reservation_cancellation"
	TypePaymentCancellation     = "cancellation"
)

const layoutHTML = `{{define "layout"}}<div style="font-family: sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #e2e8f0;">
{{template "content" .}}
<hr style="border: 0; border-top: 1px solid #e2e8f0; margin: 24px 0;" />
<p style="font-size: 12px; color: #94a3b8; text-align: center;">This is an automated email, please do not reply to this message.</p>
</div>{{end}}`

const confirmationHTML = `{{define "content"}}<h1 style="color: #2563eb;">Reservation confirmed</h1>
<p>Hello <strong>{{.Name}}</strong>,</p>
<p>Your payment has been processed and your reservation is confirmed.</p>
<table style="width: 100%; border-collapse: collapse;">
<tr><td>Reservation:</td><td><strong>#{{.Event.ReservationID}}</strong></td></tr>
<tr><td>Room:</td><td><strong>{{.Event.RoomNumber}}</strong></td></tr>
<tr><td>Check-in:</td><td><strong>{{.Event.CheckIn}}</strong></td></tr>
<tr><td>Check-out:</td><td><strong>{{.Event.CheckOut}}</strong></td></tr>
<tr><td>Guests:</td><td><strong>{{.Event.Guests}}</strong></td></tr>
<tr><td>Total:</td><td><strong>{{.Event.TotalPrice}}</strong></td></tr>
</table>
<p>We look forward to seeing you soon!</p>{{end}}`

const reservationCancelledHTML = `{{define "content"}}<h1 style="color: #dc2626;">Reservation cancelled</h1>
<p>Hello <strong>{{.Name}}</strong>,</p>
<p>Your reservation <strong>#{{.Event.ReservationID}}</strong> for room <strong>{{.Event.RoomNumber}}</strong>
({{.Event.CheckIn}} to {{.Event.CheckOut}}) has been cancelled.</p>
{{with .Event.Reason}}<p>Reason: {{.}}</p>{{end}}
<p>If you have any questions, please contact our support team.</p>{{end}}`

const paymentCancelledHTML = `{{define "content"}}<h1 style="color: #dc2626;">Payment cancelled</h1>
<p>Hello <strong>{{.Name}}</strong>,</p>
<p>Your payment was cancelled or could not be completed, so the room has been released.</p>
<p>No charge has been made. You can book again on our website at any time.</p>{{end}}`

type emailTemplate struct {
	subject string
	kind    string
	tmpl    *template.Template
}

var templates = map[domain.EventKind]emailTemplate{
	domain.EventReservationConfirmed: {
		subject: "Reservation confirmation #%s - Room Reservation",
		kind:    TypeConfirmation,
		tmpl:    mustParse(confirmationHTML),
	},
	domain.EventReservationCancelled: {
		subject: "Reservation Cancelled #%s - Room Reservation",
		kind:    TypeReservationCancellation,
		tmpl:    mustParse(reservationCancelledHTML),
	},
	domain.EventReservationPaymentCancelled: {
		subject: "Payment Process Cancelled - Room Reservation",
		kind:    TypePaymentCancellation,
		tmpl:    mustParse(paymentCancelledHTML),
	},
}

func mustParse(content string) *template.Template {
	return template.Must(template.Must(template.New("layout").Parse(layoutHTML)).Parse(content))
}

// Render builds the email for evt. It returns the email type as well so the
// delivery log can be filtered by it.
func Render(evt domain.ReservationEvent) (Message, string, error) {
	t, ok := templates[evt.Kind]
	if !ok {
		return Message{}, "", fmt.Errorf("notify.Render: unknown event kind %q", evt.Kind)
	}

	name := evt.FullName
	if name == "" {
		name = evt.Email
	}

	var buf bytes.Buffer
	data := struct {
		Name  string
		Event domain.ReservationEvent
	}{Name: name, Event: evt}
	if err := t.tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return Message{}, "", fmt.Errorf("notify.Render: %w", err)
	}

	subject := t.subject
	if evt.Kind != domain.EventReservationPaymentCancelled {
		subject = fmt.Sprintf(t.subject, shortID(evt))
	}
	return Message{ToEmail: evt.Email, ToName: name, Subject: subject, HTML: buf.String()}, t.kind, nil
}

// shortID is the first block of the reservation UUID, enough to quote on the phone.
func shortID(evt domain.ReservationEvent) string {
	return evt.ReservationID.String()[:8]
}
