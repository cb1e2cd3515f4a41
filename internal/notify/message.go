package notify

import (
	"fmt"
	"html"
	"strings"

	"github.com/shelterwatch/shelterwatch/internal/models"
)

const emailSubject = "⚠️ Natural Disaster Alert in Your Area"

// smsBody renders the text alert: warning header, one summary line per
// event, closing safety instruction.
func smsBody(events []models.HazardEvent) string {
	lines := make([]string, 0, len(events))
	for _, e := range events {
		lines = append(lines, e.Summary())
	}

	return "⚠️ Natural Disaster Alert!\n\n" +
		strings.Join(lines, "\n") +
		"\n\nStay safe and follow local authorities' guidance."
}

// emailBody renders the HTML alert: header, bulleted event summaries,
// safety instruction, and a footer referencing the recipient ID for
// alert management.
func emailBody(recipientID string, events []models.HazardEvent) string {
	var b strings.Builder

	b.WriteString(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">`)
	b.WriteString(`<h2 style="color: #dc2626;">Natural Disaster Alert</h2>`)
	b.WriteString(`<p>Hello,</p>`)
	b.WriteString(`<p>We've detected the following disaster(s) near your location:</p>`)
	b.WriteString(`<ul style="background-color: #fef2f2; padding: 20px; border-left: 4px solid #dc2626; margin: 20px 0;">`)

	for _, e := range events {
		name := e.Title
		if name == "" {
			name = e.Category
		}
		desc := e.Description
		if desc == "" {
			desc = "Active in your area"
		}
		fmt.Fprintf(&b,
			`<li style="margin-bottom: 10px;"><strong>%s</strong>: %s</li>`,
			html.EscapeString(name), html.EscapeString(desc))
	}

	b.WriteString(`</ul>`)
	b.WriteString(`<p style="font-weight: bold; color: #991b1b;">Please stay safe and follow guidance from local authorities.</p>`)
	b.WriteString(`<hr style="border: none; border-top: 1px solid #e5e7eb; margin: 20px 0;">`)
	fmt.Fprintf(&b,
		`<p style="font-size: 12px; color: #6b7280;">You're receiving this alert because you signed up for disaster notifications. To manage your alert settings, use your user ID: %s</p>`,
		html.EscapeString(recipientID))
	b.WriteString(`</div>`)

	return b.String()
}
