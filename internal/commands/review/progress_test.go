package review

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thomas-vilte/matereview/internal/errors"
	"github.com/thomas-vilte/matereview/internal/models"
	"github.com/thomas-vilte/matereview/internal/notify"
	"github.com/thomas-vilte/matereview/internal/services"
)

const progressDiff = `diff --git a/main.go b/main.go
index 1111111..2222222 100644
--- a/main.go
+++ b/main.go
@@ -1 +1,2 @@
 package main
+func helper() {}
`

func plainOutput(t *testing.T) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
}

func runStages(t *testing.T, verbose bool, dispatch notify.DispatchReport) string {
	t.Helper()
	plainOutput(t)

	hash := "0123456789abcdef"
	change := models.ChangeInfo{
		CommitMessage:   "feat: helper",
		AuthorName:      "Dev",
		CommitTimestamp: "2024-03-02T10:00:00Z",
		CommitHash:      &hash,
		DiffText:        progressDiff,
	}
	outcome, err := models.NewReviewOutcome(change, "## Review\nLooks fine overall, no blocking problems found.", time.Now(), "records/x.md")
	require.NoError(t, err)
	msg := notify.NewBuilder("", "").Build(outcome)

	var buf bytes.Buffer
	p := newProgress(&buf, mustTranslations(t), false, verbose)
	event := services.StageEvent{RunID: "run-1", Change: change}
	for _, stage := range []services.Stage{services.StageStart, services.StageDiffFetched, services.StageReviewed, services.StageReportSaved} {
		event.Stage = stage
		p.observe(event)
	}
	event.Stage = services.StageNotified
	event.Outcome, event.Message, event.Dispatch = &outcome, &msg, &dispatch
	p.observe(event)
	event.Stage = services.StageDone
	event.Elapsed = 1500 * time.Millisecond
	p.observe(event)

	p.printSummary(outcome)
	return buf.String()
}

func TestProgress(t *testing.T) {
	t.Run("steps in order with duration", func(t *testing.T) {
		out := runStages(t, false, notify.DispatchReport{Enabled: 2, Completed: 2})

		order := []string{"Fetching", "Commit 0123456", "1 file changed", "Review completed",
			"Notifications: 2/2 delivered", "Report saved to records/x.md", "Review finished (1.5s)"}
		last := -1
		for _, s := range order {
			idx := strings.Index(out, s)
			require.GreaterOrEqual(t, idx, 0, "missing %q in:\n%s", s, out)
			assert.Greater(t, idx, last, "%q out of order", s)
			last = idx
		}
		assert.NotContains(t, out, "+func helper() {}")
	})

	t.Run("verbose prints a diff preview", func(t *testing.T) {
		out := runStages(t, true, notify.DispatchReport{})

		assert.Contains(t, out, "+func helper() {}")
		assert.NotContains(t, out, "delivered")
	})

	t.Run("failed deliveries are a warning", func(t *testing.T) {
		out := runStages(t, false, notify.DispatchReport{Enabled: 2, Completed: 2, Failed: 1})

		assert.Contains(t, out, "Notifications: 1/2 delivered")
	})

	t.Run("deadline reached", func(t *testing.T) {
		out := runStages(t, false, notify.DispatchReport{Enabled: 2, Completed: 1, TimedOut: true})

		assert.Contains(t, out, "Notification deadline reached, 1/2 delivered")
	})
}

func TestProgress_Failure(t *testing.T) {
	plainOutput(t)

	t.Run("error is reported on the running step", func(t *testing.T) {
		var buf bytes.Buffer
		p := newProgress(&buf, mustTranslations(t), false, false)

		p.observe(services.StageEvent{Stage: services.StageStart})
		p.observe(services.StageEvent{Stage: services.StageFailed, Err: errors.ErrBackendRejected})

		assert.Contains(t, buf.String(), "Review failed")
		assert.True(t, p.reported)
	})

	t.Run("insufficient history is not a failure line", func(t *testing.T) {
		var buf bytes.Buffer
		p := newProgress(&buf, mustTranslations(t), false, false)

		p.observe(services.StageEvent{Stage: services.StageStart})
		p.observe(services.StageEvent{Stage: services.StageFailed, Err: errors.ErrInsufficientHistory})

		assert.NotContains(t, buf.String(), "Review failed")
		assert.False(t, p.reported)
	})
}
