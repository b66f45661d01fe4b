package message

import (
	"strings"

	"github.com/johnpaularthur/rundeck-slack-plugin/internal/domain"
)

// buildTitle renders the one-line breadcrumb title:
//
//	<execHref|#id - STATUS - jobName> - <serverUrl.../jobs|project> - <.../jobs/a|a>/<.../jobs/a/b|b>/<jobHref|jobName>
//
// Returns "" when the record has no job or no job context, which suppresses
// the title key entirely.
func buildTitle(rec *domain.ExecutionRecord) string {
	if rec.Job == nil || rec.Context == nil || rec.Context.Job == nil {
		return ""
	}
	serverURL := rec.Context.Job.ServerURL

	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(rec.Href)
	b.WriteString("|#")
	b.WriteString(string(rec.ID))
	b.WriteString(" - ")
	b.WriteString(strings.ToUpper(rec.Status))
	if rec.Status == domain.StatusAborted && rec.AbortedBy != "" {
		b.WriteString(" by ")
		b.WriteString(rec.AbortedBy)
	}
	b.WriteString(" - ")
	b.WriteString(rec.Job.Name)
	b.WriteString("> - <")
	b.WriteString(serverURL)
	b.WriteString("project/")
	b.WriteString(rec.Project)
	b.WriteString("/jobs|")
	b.WriteString(rec.Project)
	b.WriteString("> - ")

	if rec.Job.Group != "" {
		// Each segment links to the group path accumulated so far.
		var path strings.Builder
		for _, segment := range strings.Split(rec.Job.Group, "/") {
			if segment == "" {
				continue
			}
			path.WriteByte('/')
			path.WriteString(segment)

			b.WriteByte('<')
			b.WriteString(serverURL)
			b.WriteString("project/")
			b.WriteString(rec.Project)
			b.WriteString("/jobs")
			b.WriteString(path.String())
			b.WriteByte('|')
			b.WriteString(segment)
			b.WriteString(">/")
		}
	}

	b.WriteByte('<')
	b.WriteString(rec.Job.Href)
	b.WriteByte('|')
	b.WriteString(rec.Job.Name)
	b.WriteByte('>')
	return b.String()
}
