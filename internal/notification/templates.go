package notification

import (
	"bytes"
	"fmt"
	"html/template"
)

// Kind selects the email template.
type Kind string

const (
	KindTicket    Kind = "ticket"
	KindReport    Kind = "report"
	KindMachine   Kind = "machine"
	KindChecklist Kind = "checklist"
	KindPassword  Kind = "password"
	KindSparePart Kind = "sparepart"
)

// TicketData fills the ticket and report templates.
type TicketData struct {
	Title         string
	Description   string
	ScheduledDate string
	MachineName   string
	Category      string
	Critical      bool
	Problem       string
	Solution      string
	Notes         string
}

// MachineData fills the machine assignment template.
type MachineData struct {
	MachineName    string
	Location       string
	SAPNumber      string
	AssignmentDate string
}

// ChecklistItemData is one line of the checklist template.
type ChecklistItemData struct {
	Description string
	Completed   bool
}

// ChecklistData fills the upcoming checklist template.
type ChecklistData struct {
	ChecklistName      string
	MachineName        string
	LastCompletionDate string
	NextPlanned        string
	Items              []ChecklistItemData
}

// SparePartData fills the reorder template.
type SparePartData struct {
	Name         string
	PartNumber   string
	MachineName  string
	Quantity     int
	ReorderLevel int
	Supplier     string
	Location     string
}

const layout = `<!DOCTYPE html>
<html>
<head><meta http-equiv="Content-Type" content="text/html; charset=UTF-8"><meta name="viewport" content="width=device-width, initial-scale=1.0"></head>
<body style="margin:0;padding:0;background-color:#f9f9f9;">
<table style="border-collapse:collapse;margin:0 auto;width:100%;max-width:600px;">
<tr><td style="background-color:#009a9b;padding:30px 10px;text-align:center;">
<p style="font-size:28px;line-height:140%;color:#ffffff;font-family:Montserrat,sans-serif;"><strong>{{template "header" .}}</strong></p>
</td></tr>
<tr><td style="background-color:#ffffff;padding:30px 40px;color:#555555;font-family:Roboto,sans-serif;font-size:16px;line-height:140%;">
{{template "content" .}}
</td></tr>
<tr><td style="padding:15px;text-align:center;color:#999999;font-family:Roboto,sans-serif;font-size:12px;">This is an automated message. Please do not reply.</td></tr>
</table>
</body>
</html>`

var bodies = map[Kind]struct{ header, content string }{
	KindTicket: {
		header: `You have been assigned a maintenance ticket`,
		content: `<p>A new maintenance ticket has been assigned to you:</p>
<p><strong style="color:#009a9b;">Title:</strong> {{.Title}}</p>
<p><strong style="color:#009a9b;">Description:</strong> {{.Description}}</p>
<p><strong style="color:#009a9b;">Scheduled Date:</strong> {{.ScheduledDate}}</p>
<p><strong style="color:#009a9b;">Machine:</strong> {{.MachineName}}</p>
<p><strong style="color:#009a9b;">Category:</strong> {{.Category}}</p>
<p><strong style="color:#009a9b;">Criticality:</strong> {{if .Critical}}Critical{{else}}Normal{{end}}</p>
<p>Please review the ticket details above and take the necessary actions.</p>`,
	},
	KindReport: {
		header: `Maintenance Report`,
		content: `<p>Maintenance Report:</p>
<p><strong style="color:#009a9b;">Title:</strong> {{.Title}}</p>
<p><strong style="color:#009a9b;">Description:</strong> {{.Description}}</p>
<p><strong style="color:#009a9b;">Scheduled Date:</strong> {{.ScheduledDate}}</p>
<p><strong style="color:#009a9b;">Machine:</strong> {{.MachineName}}</p>
<p><strong style="color:#009a9b;">Category:</strong> {{.Category}}</p>
<p><strong style="color:#009a9b;">Criticality:</strong> {{if .Critical}}Critical{{else}}Normal{{end}}</p>
<p><strong style="color:#009a9b;">Problem:</strong> {{.Problem}}</p>
<p><strong style="color:#009a9b;">Solution:</strong> {{.Solution}}</p>
{{if .Notes}}<p><strong style="color:#009a9b;">Notes:</strong> {{.Notes}}</p>{{end}}`,
	},
	KindMachine: {
		header: `A machine has been assigned to you`,
		content: `<p>A new machine has been assigned to you:</p>
<p><strong style="color:#009a9b;">Machine Name:</strong> {{.MachineName}}</p>
<p><strong style="color:#009a9b;">Location:</strong> {{.Location}}</p>
<p><strong style="color:#009a9b;">SAP Number:</strong> {{.SAPNumber}}</p>
<p><strong style="color:#009a9b;">Assignment Date:</strong> {{.AssignmentDate}}</p>
<p>Please familiarize yourself with the machine details and its location.</p>`,
	},
	KindChecklist: {
		header: `Upcoming checklist notification`,
		content: `<p>You have an upcoming checklist to complete:</p>
<p><strong style="color:#009a9b;">Checklist Name:</strong> {{.ChecklistName}}</p>
<p><strong style="color:#009a9b;">Machine:</strong> {{.MachineName}}</p>
<p><strong style="color:#009a9b;">Last Completion Date:</strong> {{.LastCompletionDate}}</p>
<p><strong style="color:#009a9b;">Scheduled Date:</strong> {{.NextPlanned}}</p>
<p><strong style="color:#009a9b;">Checklist Items:</strong></p>
<ul>{{range .Items}}
<li style="margin-bottom:5px;"><strong>{{.Description}}</strong> - {{if .Completed}}Completed{{else}}Not Completed{{end}}</li>{{end}}
</ul>
<p>Please ensure you complete the checklist by the scheduled date.</p>`,
	},
	KindPassword: {
		header: `You Requested a Password Reset`,
		content: `<div style="text-align:center;">
<p><strong style="color:#009a9b;">This is your OTP code:</strong></p>
<p>Use it to reset your password</p>
<p style="margin:20px 0 15px;font-size:32px;font-weight:bold;color:#009a9b;">{{.}}</p>
</div>`,
	},
	KindSparePart: {
		header: `Spare part stock is low`,
		content: `<p>The following spare part has reached its reorder level:</p>
<p><strong style="color:#009a9b;">Part:</strong> {{.Name}} ({{.PartNumber}})</p>
<p><strong style="color:#009a9b;">Machine:</strong> {{.MachineName}}</p>
<p><strong style="color:#009a9b;">Quantity:</strong> {{.Quantity}} (reorder level {{.ReorderLevel}})</p>
<p><strong style="color:#009a9b;">Supplier:</strong> {{.Supplier}}</p>
<p><strong style="color:#009a9b;">Location:</strong> {{.Location}}</p>`,
	},
}

const defaultHeader = `Notification`
const defaultContent = `<p>You have a new notification. Please check the details in the app.</p>`

var templates = buildTemplates()

func buildTemplates() map[Kind]*template.Template {
	out := make(map[Kind]*template.Template, len(bodies)+1)
	for kind, b := range bodies {
		out[kind] = mustTemplate(string(kind), b.header, b.content)
	}
	out[""] = mustTemplate("default", defaultHeader, defaultContent)
	return out
}

func mustTemplate(name, header, content string) *template.Template {
	t := template.Must(template.New(name).Parse(layout))
	template.Must(t.New("header").Parse(header))
	template.Must(t.New("content").Parse(content))
	return t
}

// Render produces the HTML body for kind. Unknown kinds use the generic notification.
func Render(kind Kind, data any) (string, error) {
	t, ok := templates[kind]
	if !ok {
		t = templates[""]
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s email: %w", kind, err)
	}
	return buf.String(), nil
}
