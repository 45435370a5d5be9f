package report

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/facebookgo/clock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/email"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/model"
)

type mockMetrics struct{ mock.Mock }

func (m *mockMetrics) Snapshot(ctx context.Context, organizationID *string) (model.MetricsSnapshot, error) {
	args := m.Called(ctx, organizationID)
	return args.Get(0).(model.MetricsSnapshot), args.Error(1)
}

type mockOrgs struct{ mock.Mock }

func (m *mockOrgs) List(ctx context.Context) ([]model.Organization, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Organization), args.Error(1)
}

type mockRecipients struct{ mock.Mock }

func (m *mockRecipients) ListReportRecipients(ctx context.Context, organizationID string) ([]string, error) {
	args := m.Called(ctx, organizationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type mockSender struct{ mock.Mock }

func (m *mockSender) Send(ctx context.Context, msg email.Message) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

type mockStore struct{ mock.Mock }

func (m *mockStore) Store(ctx context.Context, date, organizationID, html string) error {
	return m.Called(ctx, date, organizationID, html).Error(0)
}

func orgID(id string) any {
	return mock.MatchedBy(func(p *string) bool { return p != nil && *p == id })
}

func reportClock() clock.Clock {
	clk := clock.NewMock()
	clk.Add(time.Date(2024, 5, 6, 17, 0, 0, 0, time.UTC).Sub(clk.Now()))
	return clk
}

func TestDailyReport_SendsAndArchives(t *testing.T) {
	ctx := context.Background()
	metrics, orgs, recipients, sender, store := &mockMetrics{}, &mockOrgs{}, &mockRecipients{}, &mockSender{}, &mockStore{}

	orgs.On("List", ctx).Return([]model.Organization{{ID: "org-1", Name: "Acme"}, {ID: "org-2", Name: "Empty Co"}}, nil)
	recipients.On("ListReportRecipients", ctx, "org-1").Return([]string{"a@acme.test", "b@acme.test"}, nil)
	recipients.On("ListReportRecipients", ctx, "org-2").Return([]string{}, nil)
	metrics.On("Snapshot", ctx, orgID("org-1")).Return(model.MetricsSnapshot{Total: 4, Recycle: 2, Compost: 1, Trash: 1, DiversionRate: 75}, nil)
	sender.On("Send", ctx, mock.MatchedBy(func(msg email.Message) bool {
		return msg.From == "reports@revisent.test" &&
			assert.ObjectsAreEqual([]string{"a@acme.test", "b@acme.test"}, msg.To) &&
			msg.Subject == "Daily impact report for Acme, 2024-05-06"
	})).Return("msg-1", nil)
	store.On("Store", ctx, "2024-05-06", "org-1", mock.MatchedBy(func(html string) bool {
		return html != ""
	})).Return(nil)

	r := NewDailyReport(metrics, orgs, recipients, sender, DailyOptions{
		From:     "reports@revisent.test",
		Location: time.UTC,
		Clock:    reportClock(),
		Archive:  store,
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, r.Run(ctx))

	sender.AssertNumberOfCalls(t, "Send", 1)
	store.AssertExpectations(t)
	metrics.AssertNotCalled(t, "Snapshot", ctx, orgID("org-2"))
}

func TestDailyReport_OrganizationFailureContinues(t *testing.T) {
	ctx := context.Background()
	metrics, orgs, recipients, sender := &mockMetrics{}, &mockOrgs{}, &mockRecipients{}, &mockSender{}
	fetchErr := errors.New("fetch failed")

	orgs.On("List", ctx).Return([]model.Organization{{ID: "org-1", Name: "Acme"}, {ID: "org-2", Name: "Beta"}}, nil)
	recipients.On("ListReportRecipients", ctx, mock.Anything).Return([]string{"x@test"}, nil)
	metrics.On("Snapshot", ctx, orgID("org-1")).Return(model.MetricsSnapshot{}, fetchErr)
	metrics.On("Snapshot", ctx, orgID("org-2")).Return(model.MetricsSnapshot{Total: 1, Trash: 1}, nil)
	sender.On("Send", ctx, mock.Anything).Return("msg-2", nil)

	r := NewDailyReport(metrics, orgs, recipients, sender, DailyOptions{Location: time.UTC, Clock: reportClock()})
	err := r.Run(ctx)

	require.Error(t, err)
	assert.ErrorIs(t, err, fetchErr)
	sender.AssertNumberOfCalls(t, "Send", 1)
}

func TestDailyReport_SendFailure(t *testing.T) {
	ctx := context.Background()
	metrics, orgs, recipients, sender, store := &mockMetrics{}, &mockOrgs{}, &mockRecipients{}, &mockSender{}, &mockStore{}

	orgs.On("List", ctx).Return([]model.Organization{{ID: "org-1", Name: "Acme"}}, nil)
	recipients.On("ListReportRecipients", ctx, "org-1").Return([]string{"x@test"}, nil)
	metrics.On("Snapshot", ctx, orgID("org-1")).Return(model.MetricsSnapshot{}, nil)
	sender.On("Send", ctx, mock.Anything).Return("", email.ErrSendFailed)

	r := NewDailyReport(metrics, orgs, recipients, sender, DailyOptions{Clock: reportClock(), Archive: store})
	err := r.Run(ctx)

	assert.ErrorIs(t, err, email.ErrSendFailed)
	store.AssertNotCalled(t, "Store", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDailyReport_ListFailure(t *testing.T) {
	ctx := context.Background()
	orgs := &mockOrgs{}
	orgs.On("List", ctx).Return(nil, errors.New("db down"))

	r := NewDailyReport(&mockMetrics{}, orgs, &mockRecipients{}, &mockSender{}, DailyOptions{})
	err := r.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

type fakePutter struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	if params.Body != nil {
		b, _ := io.ReadAll(params.Body)
		f.body = string(b)
	}
	return &s3.PutObjectOutput{}, f.err
}

func TestArchive_Store(t *testing.T) {
	putter := &fakePutter{}
	a := NewArchive(putter, "reports-bucket")

	require.NoError(t, a.Store(context.Background(), "2024-05-06", "org-1", "<h2>hi</h2>"))
	assert.Equal(t, "reports-bucket", *putter.input.Bucket)
	assert.Equal(t, "reports/2024-05-06/org-1.html", *putter.input.Key)
	assert.Equal(t, "text/html; charset=utf-8", *putter.input.ContentType)
	assert.Equal(t, "<h2>hi</h2>", putter.body)
}

func TestArchive_StoreError(t *testing.T) {
	putter := &fakePutter{err: errors.New("access denied")}
	a := NewArchive(putter, "reports-bucket")

	err := a.Store(context.Background(), "2024-05-06", "org-1", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reports/2024-05-06/org-1.html")
}

func TestNewS3Client(t *testing.T) {
	client := NewS3Client(S3Config{Endpoint: "http://localhost:9000", Region: "us-east-1", AccessKey: "k", SecretKey: "s"})
	assert.NotNil(t, client)
}

func TestScheduler_AddRejectsInvalidSpec(t *testing.T) {
	s := NewScheduler(time.UTC, zerolog.Nop())
	err := s.Add("bad", "not a schedule", func(context.Context) error { return nil })
	assert.Error(t, err)
}

func TestScheduler_RunPassesContext(t *testing.T) {
	s := NewScheduler(time.UTC, zerolog.Nop())
	called := false
	s.run("probe", func(ctx context.Context) error {
		called = true
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return errors.New("ignored")
	})
	assert.True(t, called)
}

func TestScheduler_StopCancelsJobs(t *testing.T) {
	s := NewScheduler(time.UTC, zerolog.Nop())
	require.NoError(t, s.Add("noop", "@every 1h", func(context.Context) error { return nil }))
	s.Start()
	s.Stop()
	assert.Error(t, s.ctx.Err())
}
