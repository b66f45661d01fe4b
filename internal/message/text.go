package message

import (
	"fmt"
	"strings"
	"time"

	"github.com/johnpaularthur/rundeck-slack-plugin/internal/domain"
)

// timestampLayout matches the short date/time style the notifications have
// always used, e.g. "1/15/24, 10:00 AM".
const timestampLayout = "1/2/06, 3:04 PM"

// buildText renders the summary attachment body: the launch/duration clause
// followed by the log-link and job-options label clause.
func buildText(rec *domain.ExecutionRecord, loc *time.Location) string {
	var b strings.Builder
	writeLaunchClause(&b, rec, loc)
	writeDownloadClause(&b, rec)
	return b.String()
}

// writeLaunchClause emits "Launched by {user} at {start}" plus the ended /
// timed-out suffix. No start time means no clause at all.
func writeLaunchClause(b *strings.Builder, rec *domain.ExecutionRecord, loc *time.Location) {
	if rec.DateStartedUnixtime == nil {
		return
	}
	start := time.UnixMilli(int64(*rec.DateStartedUnixtime)).In(loc)

	b.WriteString("Launched by ")
	b.WriteString(rec.User)
	b.WriteString(" at ")
	b.WriteString(start.Format(timestampLayout))

	if rec.Status == domain.StatusAborted && rec.AbortedBy != "" {
		// Legacy quirk: the status text follows the timestamp with no
		// separator. Kept as-is until product decides otherwise.
		b.WriteString(rec.Status)
		b.WriteString(" by ")
		b.WriteString(rec.AbortedBy)
	}

	if rec.Status != domain.StatusRunning {
		if rec.Status == domain.StatusTimedOut {
			b.WriteString(", timed-out")
		} else {
			b.WriteString(", ended")
		}
		if rec.DateEndedUnixtime != nil {
			end := time.UnixMilli(int64(*rec.DateEndedUnixtime)).In(loc)
			b.WriteString(" at ")
			b.WriteString(end.Format(timestampLayout))
			b.WriteString(" (duration: ")
			b.WriteString(FormatDuration(int64(*rec.DateEndedUnixtime) - int64(*rec.DateStartedUnixtime)))
			b.WriteByte(')')
		}
	}
}

// writeDownloadClause emits the log-output link for any non-running,
// non-success status, then the job-options label when options exist. The
// label punctuation depends on whether the link was emitted.
func writeDownloadClause(b *strings.Builder, rec *domain.ExecutionRecord) {
	if rec.Context == nil {
		return
	}
	serverURL := ""
	if rec.Context.Job != nil {
		serverURL = rec.Context.Job.ServerURL
	}

	download := false
	if rec.Status != domain.StatusRunning && rec.Status != domain.StatusSuccess {
		// "ouput" is the historical label spelling; changing it would break
		// anything matching on the message text.
		fmt.Fprintf(b, "\n<%sproject/%s/execution/renderOutput/%s?ansicolor=on&loglevels=on|View log ouput>",
			serverURL, rec.Project, rec.ID)
		download = true
	}

	if len(rec.Context.Options) > 0 {
		if download {
			b.WriteString(", job options:")
		} else {
			b.WriteString("\nJob options:")
		}
	}
}
