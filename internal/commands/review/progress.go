package review

import (
	"fmt"
	"io"

	"github.com/thomas-vilte/matereview/internal/errors"
	"github.com/thomas-vilte/matereview/internal/i18n"
	"github.com/thomas-vilte/matereview/internal/models"
	"github.com/thomas-vilte/matereview/internal/services"
	"github.com/thomas-vilte/matereview/internal/ui"
)

// progress turns pipeline stage events into console steps.
// previewLines bounds the diff preview printed with --verbose.
const previewLines = 40

type progress struct {
	w       io.Writer
	t       *i18n.Translations
	animate bool
	verbose bool

	spinner *ui.SmartSpinner
	last    services.StageEvent
	// reported is set once a failure was printed on the running step.
	reported bool
}

func newProgress(w io.Writer, t *i18n.Translations, animate, verbose bool) *progress {
	return &progress{w: w, t: t, animate: animate, verbose: verbose}
}

func (p *progress) observe(e services.StageEvent) {
	p.last = e

	switch e.Stage {
	case services.StageStart:
		p.step("step_fetching_diff")
	case services.StageDiffFetched:
		p.done(p.t.GetMessage("diff_fetched", 0, map[string]interface{}{
			"Hash":    e.Change.ShortHash(),
			"Author":  e.Change.AuthorName,
			"Summary": e.Change.ChangeSummary(),
		}))
		if files := e.Change.Files(); len(files) > 0 {
			ui.ShowFilesTree(p.w, files, p.t.GetMessage("changed_files", len(files), map[string]interface{}{"Count": len(files)}))
		}
		if p.verbose {
			_, _ = fmt.Fprintf(p.w, "\n%s\n\n", ui.Dim.Sprint(e.Change.Preview(previewLines)))
		}
		p.step("step_reviewing")
	case services.StageReviewed:
		p.done(p.t.GetMessage("review_done", 0, nil))
		p.step("step_saving_report")
	case services.StageReportSaved:
		p.step("step_notifying")
	case services.StageNotified:
		p.notified(e)
	case services.StageFailed:
		if errors.KindOf(e.Err) == errors.CodeInsufficientHistory || p.spinner == nil {
			p.stop()
			return
		}
		p.spinner.Error(p.t.GetMessage("review_failed", 0, nil))
		p.spinner = nil
		p.reported = true
	}
}

// step starts a spinner for id, or moves the running one on to it.
func (p *progress) step(id string) {
	msg := p.t.GetMessage(id, 0, nil)
	if p.spinner != nil {
		p.spinner.UpdateMessage(msg)
		return
	}
	p.spinner = ui.NewSmartSpinner(p.w, msg, p.animate)
	p.spinner.Start()
}

func (p *progress) done(msg string) {
	if p.spinner == nil {
		ui.PrintSuccess(p.w, msg)
		return
	}
	p.spinner.Success(msg)
	p.spinner = nil
}

func (p *progress) warn(msg string) {
	if p.spinner == nil {
		ui.PrintWarning(p.w, msg)
		return
	}
	p.spinner.Warning(msg)
	p.spinner = nil
}

func (p *progress) stop() {
	if p.spinner != nil {
		p.spinner.Stop()
		p.spinner = nil
	}
}

func (p *progress) notified(e services.StageEvent) {
	if e.Dispatch == nil || e.Dispatch.Enabled == 0 {
		p.stop()
		return
	}

	delivered := e.Dispatch.Completed - e.Dispatch.Failed
	data := map[string]interface{}{"Completed": delivered, "Enabled": e.Dispatch.Enabled}
	switch {
	case e.Dispatch.TimedOut:
		p.warn(p.t.GetMessage("review_notify_timeout", 0, data))
	case e.Dispatch.Failed > 0:
		p.warn(p.t.GetMessage("review_notified", 0, data))
	default:
		p.done(p.t.GetMessage("review_notified", 0, data))
	}
}

func (p *progress) printSummary(outcome models.ReviewOutcome) {
	if loc := outcome.Location(); loc != "" {
		ui.PrintSuccess(p.w, p.t.GetMessage("report_saved", 0, map[string]interface{}{"Location": loc}))
	} else {
		ui.PrintInfo(p.w, p.t.GetMessage("report_not_saved", 0, nil))
	}

	ui.PrintSectionBanner(p.w, p.t.GetMessage("section_review", 0, nil))
	if msg := p.last.Message; msg != nil {
		_, _ = ui.SeverityColor(msg.Severity).Fprintf(p.w, "   %s: %s\n", p.t.GetMessage("label_severity", 0, nil), msg.Severity)
		ui.PrintKeyValue(p.w, p.t.GetMessage("label_issues", 0, nil), msg.Metadata[models.MetaIssueStats])
		ui.PrintKeyValue(p.w, p.t.GetMessage("review_summary", 0, nil), msg.Summary)
		if link := msg.Link(); link != "" {
			ui.PrintKeyValue(p.w, p.t.GetMessage("label_link", 0, nil), link)
		}
		_, _ = fmt.Fprintln(p.w)
	}
	_, _ = fmt.Fprintln(p.w, outcome.ReviewText)
	ui.PrintDuration(p.w, p.t.GetMessage("review_duration", 0, nil), p.last.Elapsed)
}
