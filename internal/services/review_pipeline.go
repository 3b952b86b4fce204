package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/thomas-vilte/matereview/internal/ai"
	"github.com/thomas-vilte/matereview/internal/errors"
	"github.com/thomas-vilte/matereview/internal/logger"
	"github.com/thomas-vilte/matereview/internal/models"
	"github.com/thomas-vilte/matereview/internal/notify"
	"github.com/thomas-vilte/matereview/internal/ports"
)

// Stage is a state of one review run.
type Stage string

const (
	StageStart       Stage = "START"
	StageDiffFetched Stage = "DIFF_FETCHED"
	StageReviewed    Stage = "REVIEWED"
	StageReportSaved Stage = "REPORT_SAVED"
	StageNotified    Stage = "NOTIFIED"
	StageDone        Stage = "DONE"
	StageFailed      Stage = "FAILED"
)

// StageEvent is emitted each time a run enters a new stage. Fields are filled as the run
// progresses: Change from DIFF_FETCHED, Outcome and Message from NOTIFIED.
type StageEvent struct {
	RunID    string
	Stage    Stage
	Change   models.ChangeInfo
	Outcome  *models.ReviewOutcome
	Message  *models.NotificationMessage
	Dispatch *notify.DispatchReport
	Elapsed  time.Duration
	Err      error
}

type Option func(*ReviewPipeline)

// WithLanguage selects the review prompt language.
func WithLanguage(lang string) Option {
	return func(p *ReviewPipeline) { p.lang = lang }
}

func WithNotifyDeadline(d time.Duration) Option {
	return func(p *ReviewPipeline) { p.deadline = d }
}

func WithClock(now func() time.Time) Option {
	return func(p *ReviewPipeline) { p.now = now }
}

// WithStageObserver registers fn to be called synchronously on every stage transition.
func WithStageObserver(fn func(StageEvent)) Option {
	return func(p *ReviewPipeline) { p.onStage = fn }
}

// ReviewPipeline runs one review: fetch the latest change, review it, persist the report and
// notify. Only the review call retries, inside the Reviewer.
type ReviewPipeline struct {
	source    ports.ChangeSource
	reviewer  ports.Reviewer
	sink      ports.ReportSink
	notifiers []ports.Notifier
	builder   *notify.Builder
	fanout    *notify.Fanout

	lang     string
	deadline time.Duration
	now      func() time.Time
	newRunID func() string
	onStage  func(StageEvent)
}

func NewReviewPipeline(
	source ports.ChangeSource,
	reviewer ports.Reviewer,
	sink ports.ReportSink,
	notifiers []ports.Notifier,
	builder *notify.Builder,
	opts ...Option,
) *ReviewPipeline {
	p := &ReviewPipeline{
		source:    source,
		reviewer:  reviewer,
		sink:      sink,
		notifiers: notifiers,
		builder:   builder,
		fanout:    notify.NewFanout(),
		deadline:  notify.DefaultDeadline,
		now:       time.Now,
		newRunID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.builder == nil {
		p.builder = notify.NewBuilder("", "")
	}
	return p
}

type run struct {
	p       *ReviewPipeline
	id      string
	started time.Time
	event   StageEvent
}

func (r *run) enter(ctx context.Context, stage Stage) {
	r.event.Stage = stage
	r.event.Elapsed = r.p.now().Sub(r.started)
	logger.Debug(ctx, "pipeline stage", "stage", stage, "elapsed", r.event.Elapsed)
	if r.p.onStage != nil {
		r.p.onStage(r.event)
	}
}

func (r *run) fail(ctx context.Context, err error) error {
	r.event.Err = err
	if errors.KindOf(err) == errors.CodeInsufficientHistory {
		logger.Info(ctx, "nothing to review", "reason", err.Error())
	} else {
		logger.Error(ctx, "review run failed", err, "stage", r.event.Stage)
	}
	r.enter(ctx, StageFailed)
	return err
}

// Execute performs one review run and returns its outcome.
func (p *ReviewPipeline) Execute(ctx context.Context) (models.ReviewOutcome, error) {
	r := &run{p: p, id: p.newRunID(), started: p.now()}
	r.event.RunID = r.id
	ctx = logger.With(ctx, "run_id", r.id)

	logger.Info(ctx, "review run started")
	r.enter(ctx, StageStart)

	change, err := p.fetchChange(ctx)
	if err != nil {
		return models.ReviewOutcome{}, r.fail(ctx, err)
	}
	r.event.Change = change
	logger.Info(ctx, "change fetched", "commit", change.ShortHash(), "author", change.AuthorName,
		"added", change.AddedLineCount(), "deleted", change.DeletedLineCount())
	r.enter(ctx, StageDiffFetched)

	reviewText, err := p.review(ctx, change)
	if err != nil {
		return models.ReviewOutcome{}, r.fail(ctx, err)
	}
	r.enter(ctx, StageReviewed)

	location, err := p.saveReport(ctx, change, reviewText)
	if err != nil {
		return models.ReviewOutcome{}, r.fail(ctx, err)
	}
	r.enter(ctx, StageReportSaved)

	outcome, err := models.NewReviewOutcome(change, reviewText, p.now(), location)
	if err != nil {
		return models.ReviewOutcome{}, r.fail(ctx, err)
	}
	msg := p.builder.Build(outcome)
	dispatch := p.fanout.Dispatch(ctx, msg, p.notifiers, p.deadline)
	r.event.Outcome = &outcome
	r.event.Message = &msg
	r.event.Dispatch = &dispatch
	r.enter(ctx, StageNotified)

	logger.Info(ctx, "review run completed", "severity", msg.Severity, "report", outcome.Location(),
		"duration", p.now().Sub(r.started))
	r.enter(ctx, StageDone)
	return outcome, nil
}

func (p *ReviewPipeline) fetchChange(ctx context.Context) (models.ChangeInfo, error) {
	change, err := p.source.GetLatestDiff(ctx)
	if err != nil {
		if errors.KindOf(err) == "" {
			err = errors.ErrGitOperationFailed.WithError(err)
		}
		return models.ChangeInfo{}, err
	}
	if change.IsEmpty() {
		return models.ChangeInfo{}, errors.ErrInsufficientHistory.WithContext("commit", change.ShortHash())
	}
	return change, nil
}

func (p *ReviewPipeline) review(ctx context.Context, change models.ChangeInfo) (string, error) {
	prompt, err := ai.BuildReviewPrompt(p.lang, change.DiffText)
	if err != nil {
		return "", fmt.Errorf("building review prompt: %w", err)
	}
	text, err := p.reviewer.Call(ctx, prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.ErrResponseEmpty.WithError(models.ErrBlankReview)
	}
	return text, nil
}

func (p *ReviewPipeline) saveReport(ctx context.Context, change models.ChangeInfo, reviewText string) (string, error) {
	location, err := p.sink.Save(ctx, change, reviewText)
	if err != nil {
		if stderrors.Is(err, errors.ErrReportPersistFailed) {
			return "", err
		}
		return "", errors.ErrReportPersistFailed.WithError(err)
	}
	if location == "" {
		logger.Debug(ctx, "report sink returned no location")
	}
	return location, nil
}
