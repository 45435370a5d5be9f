package email

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/model"
)

var contactTemplate = template.Must(template.New("contact").Parse(`<h2>New contact form submission</h2>
<p><strong>Name:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
{{- if .Organization}}
<p><strong>Organization:</strong> {{.Organization}}</p>
{{- end}}
<p><strong>Message:</strong></p>
<p>{{.Message}}</p>
`))

var reportTemplate = template.Must(template.New("report").Parse(`<h2>Daily impact report for {{.Organization}}</h2>
<p>{{.Date}}</p>
<table>
<tr><td>Items sorted</td><td>{{.Metrics.Total}}</td></tr>
<tr><td>Recycled</td><td>{{.Metrics.Recycle}}</td></tr>
<tr><td>Composted</td><td>{{.Metrics.Compost}}</td></tr>
<tr><td>Landfill</td><td>{{.Metrics.Trash}}</td></tr>
<tr><td>Diversion rate</td><td>{{.Metrics.DiversionRateLabel}}</td></tr>
<tr><td>CO2 saved</td><td>{{.Metrics.CO2SavedLabel}}</td></tr>
<tr><td>Items per hour today</td><td>{{.Metrics.RatePerHour}}</td></tr>
<tr><td>Last 7 days</td><td>{{.Metrics.Last7Days}}</td></tr>
<tr><td>Last 30 days</td><td>{{.Metrics.Last30Days}}</td></tr>
</table>
`))

// ReportData fills the daily report template.
type ReportData struct {
	Organization string
	Date         string
	Metrics      model.MetricsView
}

// RenderContact renders the staff notification for a contact form submission.
func RenderContact(msg model.ContactMessage) (string, error) {
	var buf bytes.Buffer
	if err := contactTemplate.Execute(&buf, msg); err != nil {
		return "", fmt.Errorf("render contact email: %w", err)
	}
	return buf.String(), nil
}

// RenderReport renders the daily impact report.
func RenderReport(data ReportData) (string, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render report email: %w", err)
	}
	return buf.String(), nil
}
