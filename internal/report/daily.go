// Package report runs the scheduled jobs: the daily impact report emailed to
// each organization and the periodic snapshot export.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/facebookgo/clock"
	"github.com/rs/zerolog"

	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/email"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/model"
)

type SnapshotSource interface {
	Snapshot(ctx context.Context, organizationID *string) (model.MetricsSnapshot, error)
}

type OrganizationLister interface {
	List(ctx context.Context) ([]model.Organization, error)
}

type RecipientLister interface {
	ListReportRecipients(ctx context.Context, organizationID string) ([]string, error)
}

// Store archives a rendered report. *Archive implements it.
type Store interface {
	Store(ctx context.Context, date, organizationID, html string) error
}

// DailyOptions configures a DailyReport. Archive is optional.
type DailyOptions struct {
	From     string
	Location *time.Location
	Clock    clock.Clock
	Archive  Store
	Logger   zerolog.Logger
}

// DailyReport emails every organization its metrics for the day.
type DailyReport struct {
	metrics    SnapshotSource
	orgs       OrganizationLister
	recipients RecipientLister
	sender     email.Sender
	from       string
	loc        *time.Location
	clock      clock.Clock
	archive    Store
	logger     zerolog.Logger
}

func NewDailyReport(metrics SnapshotSource, orgs OrganizationLister, recipients RecipientLister, sender email.Sender, opts DailyOptions) *DailyReport {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	return &DailyReport{
		metrics:    metrics,
		orgs:       orgs,
		recipients: recipients,
		sender:     sender,
		from:       opts.From,
		loc:        opts.Location,
		clock:      opts.Clock,
		archive:    opts.Archive,
		logger:     opts.Logger.With().Str("component", "daily-report").Logger(),
	}
}

// Run sends the report for every organization. One organization failing does
// not stop the others; the returned error joins every failure.
func (r *DailyReport) Run(ctx context.Context) error {
	orgs, err := r.orgs.List(ctx)
	if err != nil {
		return fmt.Errorf("daily report: %w", err)
	}

	date := r.clock.Now().In(r.loc).Format(time.DateOnly)
	var errs []error
	sent := 0
	for _, org := range orgs {
		ok, err := r.runOrganization(ctx, org, date)
		if err != nil {
			r.logger.Error().Err(err).Str("organization_id", org.ID).Msg("daily report failed")
			errs = append(errs, err)
			continue
		}
		if ok {
			sent++
		}
	}

	r.logger.Info().Int("organizations", len(orgs)).Int("sent", sent).Str("date", date).Msg("daily report finished")
	return errors.Join(errs...)
}

func (r *DailyReport) runOrganization(ctx context.Context, org model.Organization, date string) (bool, error) {
	to, err := r.recipients.ListReportRecipients(ctx, org.ID)
	if err != nil {
		return false, fmt.Errorf("recipients for %s: %w", org.ID, err)
	}
	if len(to) == 0 {
		r.logger.Debug().Str("organization_id", org.ID).Msg("no report recipients")
		return false, nil
	}

	snap, err := r.metrics.Snapshot(ctx, &org.ID)
	if err != nil {
		return false, fmt.Errorf("snapshot for %s: %w", org.ID, err)
	}

	html, err := email.RenderReport(email.ReportData{
		Organization: org.Name,
		Date:         date,
		Metrics:      snap.View(),
	})
	if err != nil {
		return false, err
	}

	if _, err := r.sender.Send(ctx, email.Message{
		From:    r.from,
		To:      to,
		Subject: fmt.Sprintf("Daily impact report for %s, %s", org.Name, date),
		HTML:    html,
	}); err != nil {
		return false, fmt.Errorf("send report for %s: %w", org.ID, err)
	}

	if r.archive != nil {
		if err := r.archive.Store(ctx, date, org.ID, html); err != nil {
			return true, err
		}
	}
	return true, nil
}
