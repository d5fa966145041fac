package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/yukikurage/team-task-api/internal/constants"
)

const layout = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Subject}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .footer { margin-top: 30px; font-size: 12px; color: #7f8c8d; }
    </style>
</head>
<body>
{{template "content" .}}
    <div class="footer">
        <p>Best regards,<br>{{.Signature}}</p>
    </div>
</body>
</html>`

var templates = map[string]string{
	"task_assigned": `{{define "content"}}
    <h2>Hello {{.Name}},</h2>
    <p>A new task has been assigned to you:</p>
    <h3>{{.Title}}</h3>
    <p><strong>Description:</strong><br>{{.Description}}</p>
    <p><strong>Deadline:</strong> {{.Deadline}}</p>
    {{- if .Links}}
    <p><strong>Reference Links:</strong></p>
    <ul>
        {{- range .Links}}
        <li><a href="{{.}}">{{.}}</a></li>
        {{- end}}
    </ul>
    {{- end}}
    <p>Please log in to your dashboard to view the complete task details and get started.</p>
{{end}}`,

	"completion_requested": `{{define "content"}}
    <h2>Hello {{.Name}},</h2>
    <p>{{.Requester}} has asked you to review a completed task:</p>
    <h3>{{.Title}}</h3>
    <p><strong>Deadline:</strong> {{.Deadline}}</p>
    <p>Open your dashboard to accept or reject the request.</p>
{{end}}`,

	"admin_approval": `{{define "content"}}
    <h2>Admin signup request</h2>
    <p>{{.Name}} ({{.Email}}) has requested to sign up as an admin.</p>
    <p><a href="{{.ApprovalLink}}">Approve the request</a></p>
    <p>The link expires on {{.Expires}}.</p>
{{end}}`,
}

var parsed = mustParse()

func mustParse() map[string]*template.Template {
	out := make(map[string]*template.Template, len(templates))
	for name, content := range templates {
		t := template.Must(template.New("layout").Parse(layout))
		out[name] = template.Must(t.Parse(content))
	}
	return out
}

// Renderer builds notification emails
type Renderer struct {
	Signature string
}

// NewRenderer creates a Renderer signing mail with the given name
func NewRenderer(signature string) *Renderer {
	if signature == "" {
		signature = "The Team Task service"
	}
	return &Renderer{Signature: signature}
}

// TaskAssigned is the data for the task assignment email
type TaskAssigned struct {
	To          string
	Name        string
	Title       string
	Description string
	Deadline    time.Time
	Links       []string
}

// CompletionRequested is the data for the completion review email
type CompletionRequested struct {
	To        string
	Name      string
	Requester string
	Title     string
	Deadline  time.Time
}

// AdminApproval is the data for the admin signup approval email
type AdminApproval struct {
	To           string
	Name         string
	Email        string
	ApprovalLink string
	Expires      time.Time
}

// TaskAssignedEmail renders the "New Task Assigned" email
func (r *Renderer) TaskAssignedEmail(d TaskAssigned) (Email, error) {
	subject := "New Task Assigned: " + d.Title
	return r.render("task_assigned", d.To, subject, map[string]interface{}{
		"Name":        d.Name,
		"Title":       d.Title,
		"Description": d.Description,
		"Deadline":    d.Deadline.Format(constants.DeadlineDisplayLayout),
		"Links":       d.Links,
	})
}

// CompletionRequestedEmail renders the email sent to the assigner when the
// assignee asks for completion
func (r *Renderer) CompletionRequestedEmail(d CompletionRequested) (Email, error) {
	subject := "Task completion requested: " + d.Title
	return r.render("completion_requested", d.To, subject, map[string]interface{}{
		"Name":      d.Name,
		"Requester": d.Requester,
		"Title":     d.Title,
		"Deadline":  d.Deadline.Format(constants.DeadlineDisplayLayout),
	})
}

// AdminApprovalEmail renders the admin signup approval request
func (r *Renderer) AdminApprovalEmail(d AdminApproval) (Email, error) {
	subject := "Admin Signup Request: " + d.Name
	return r.render("admin_approval", d.To, subject, map[string]interface{}{
		"Name":         d.Name,
		"Email":        d.Email,
		"ApprovalLink": d.ApprovalLink,
		"Expires":      d.Expires.UTC().Format(time.RFC1123),
	})
}

func (r *Renderer) render(name, to, subject string, data map[string]interface{}) (Email, error) {
	tmpl, ok := parsed[name]
	if !ok {
		return Email{}, fmt.Errorf("template '%s' not found", name)
	}

	data["Subject"] = subject
	data["Signature"] = r.Signature

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return Email{}, fmt.Errorf("error executing template %s: %w", name, err)
	}

	return Email{
		To:       []string{to},
		Subject:  subject,
		HTMLBody: body.String(),
	}, nil
}
