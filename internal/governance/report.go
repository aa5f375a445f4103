package governance

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/ziadkadry99/auto-assign/internal/assignment"
	"github.com/ziadkadry99/auto-assign/internal/incident"
)

// PriorityBreakdown summarises the assignments of one priority.
type PriorityBreakdown struct {
	Priority              incident.Priority `json:"priority"`
	Total                 int               `json:"total"`
	Resolved              int               `json:"resolved"`
	AverageResolutionTime float64           `json:"average_resolution_time"`
	SLAComplianceRate     float64           `json:"sla_compliance_rate"`
}

// PerformanceReport aggregates a set of assignments. Averages and rates
// are taken over resolved assignments only.
type PerformanceReport struct {
	GeneratedAt           time.Time           `json:"generated_at"`
	TotalAssignments      int                 `json:"total_assignments"`
	ResolvedAssignments   int                 `json:"resolved_assignments"`
	AverageResponseTime   float64             `json:"average_response_time"`
	AverageResolutionTime float64             `json:"average_resolution_time"`
	SLAComplianceRate     float64             `json:"sla_compliance_rate"`
	AverageQualityScore   float64             `json:"average_quality_score"`
	ByPriority            []PriorityBreakdown `json:"by_priority"`
}

type accumulator struct {
	total, resolved, compliant int
	responses                  int
	responseSum, resolutionSum float64
	qualitySum                 float64
}

func (acc *accumulator) add(a assignment.Assignment, now time.Time) {
	acc.total++
	if a.Status != assignment.StatusResolved || a.ResolvedAt == nil {
		return
	}
	acc.resolved++
	perf, _ := evaluatePerformance(a, now)
	if perf.Compliant {
		acc.compliant++
	}
	if perf.ResponseTime != nil {
		acc.responses++
		acc.responseSum += *perf.ResponseTime
	}
	acc.resolutionSum += *perf.ResolutionTime
	acc.qualitySum += evaluateQuality(a, now).Score
}

func ratio(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// GeneratePerformanceReport aggregates assignments into a report.
func (g *Governance) GeneratePerformanceReport(assignments []assignment.Assignment) PerformanceReport {
	now := g.now()
	var all accumulator
	byPriority := make(map[incident.Priority]*accumulator)
	for _, a := range assignments {
		all.add(a, now)
		acc, ok := byPriority[a.Priority]
		if !ok {
			acc = &accumulator{}
			byPriority[a.Priority] = acc
		}
		acc.add(a, now)
	}

	report := PerformanceReport{
		GeneratedAt:           now.UTC(),
		TotalAssignments:      all.total,
		ResolvedAssignments:   all.resolved,
		AverageResponseTime:   ratio(all.responseSum, all.responses),
		AverageResolutionTime: ratio(all.resolutionSum, all.resolved),
		SLAComplianceRate:     ratio(float64(all.compliant), all.resolved),
		AverageQualityScore:   ratio(all.qualitySum, all.resolved),
		ByPriority:            []PriorityBreakdown{},
	}
	for _, p := range incident.Priorities {
		acc, ok := byPriority[p]
		if !ok {
			continue
		}
		report.ByPriority = append(report.ByPriority, PriorityBreakdown{
			Priority:              p,
			Total:                 acc.total,
			Resolved:              acc.resolved,
			AverageResolutionTime: ratio(acc.resolutionSum, acc.resolved),
			SLAComplianceRate:     ratio(float64(acc.compliant), acc.resolved),
		})
	}
	return report
}

// RenderMarkdown formats r as a Markdown document.
func RenderMarkdown(r PerformanceReport) string {
	var b strings.Builder
	b.WriteString("# Assignment Performance Report\n\n")
	fmt.Fprintf(&b, "Generated %s.\n\n", r.GeneratedAt.Format(time.RFC1123))

	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Total assignments | %d |\n", r.TotalAssignments)
	fmt.Fprintf(&b, "| Resolved assignments | %d |\n", r.ResolvedAssignments)
	fmt.Fprintf(&b, "| Average response time | %.1f min |\n", r.AverageResponseTime)
	fmt.Fprintf(&b, "| Average resolution time | %.1f min |\n", r.AverageResolutionTime)
	fmt.Fprintf(&b, "| SLA compliance | %.1f%% |\n", r.SLAComplianceRate*100)
	fmt.Fprintf(&b, "| Average quality score | %.2f |\n", r.AverageQualityScore)

	if len(r.ByPriority) > 0 {
		b.WriteString("\n## By priority\n\n")
		b.WriteString("| Priority | Total | Resolved | Avg resolution | SLA compliance |\n|---|---|---|---|---|\n")
		for _, p := range r.ByPriority {
			fmt.Fprintf(&b, "| %s | %d | %d | %.1f min | %.1f%% |\n",
				p.Priority, p.Total, p.Resolved, p.AverageResolutionTime, p.SLAComplianceRate*100)
		}
	}
	return b.String()
}

var pageTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 56rem; margin: 2rem auto; color: #1f2328; }
table { border-collapse: collapse; margin: 1rem 0; }
th, td { border: 1px solid #d0d7de; padding: 0.4rem 0.8rem; text-align: left; }
th { background: #f6f8fa; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// RenderHTML renders r as a standalone HTML page.
func RenderHTML(r PerformanceReport) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))

	var body bytes.Buffer
	if err := md.Convert([]byte(RenderMarkdown(r)), &body); err != nil {
		return nil, fmt.Errorf("converting report markdown: %w", err)
	}

	var page bytes.Buffer
	err := pageTemplate.Execute(&page, struct {
		Title string
		Body  template.HTML
	}{
		Title: "Assignment Performance Report",
		Body:  template.HTML(body.String()),
	})
	if err != nil {
		return nil, fmt.Errorf("rendering report page: %w", err)
	}
	return page.Bytes(), nil
}
