package models

import (
	"errors"
	"strings"
	"time"
)

var ErrBlankReview = errors.New("review text must not be blank")

// ReviewOutcome is the result of one pipeline run.
type ReviewOutcome struct {
	Change      ChangeInfo
	ReviewText  string
	CompletedAt time.Time
	// ReportLocation is nil when the sink did not return a stable address.
	ReportLocation *string
}

// NewReviewOutcome builds an outcome, rejecting blank review text.
func NewReviewOutcome(change ChangeInfo, reviewText string, completedAt time.Time, reportLocation string) (ReviewOutcome, error) {
	if strings.TrimSpace(reviewText) == "" {
		return ReviewOutcome{}, ErrBlankReview
	}

	outcome := ReviewOutcome{
		Change:      change,
		ReviewText:  reviewText,
		CompletedAt: completedAt,
	}
	if reportLocation != "" {
		loc := reportLocation
		outcome.ReportLocation = &loc
	}
	return outcome, nil
}

// Location returns the report location or "" when none was recorded.
func (o ReviewOutcome) Location() string {
	if o.ReportLocation == nil {
		return ""
	}
	return *o.ReportLocation
}
