package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/core"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/email"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/model"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/scope"
)

type mockAuth struct{ mock.Mock }

func (m *mockAuth) Login(ctx context.Context, email, password string) (string, *model.Profile, error) {
	args := m.Called(ctx, email, password)
	p, _ := args.Get(1).(*model.Profile)
	return args.String(0), p, args.Error(2)
}

func (m *mockAuth) ValidateToken(token string) (*model.JWTClaims, error) {
	args := m.Called(token)
	c, _ := args.Get(0).(*model.JWTClaims)
	return c, args.Error(1)
}

type mockProfiles struct{ mock.Mock }

func (m *mockProfiles) GetByID(ctx context.Context, id string) (*model.Profile, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*model.Profile)
	return p, args.Error(1)
}

type mockMetrics struct{ mock.Mock }

func (m *mockMetrics) Snapshot(ctx context.Context, organizationID *string) (model.MetricsSnapshot, error) {
	args := m.Called(ctx, organizationID)
	return args.Get(0).(model.MetricsSnapshot), args.Error(1)
}

func (m *mockMetrics) Daily(ctx context.Context, organizationID *string, days int) ([]model.DailyCount, error) {
	args := m.Called(ctx, organizationID, days)
	d, _ := args.Get(0).([]model.DailyCount)
	return d, args.Error(1)
}

type mockResolver struct{ mock.Mock }

func (m *mockResolver) Resolve(ctx context.Context, organizationID *string) (scope.Scope, error) {
	args := m.Called(ctx, organizationID)
	return args.Get(0).(scope.Scope), args.Error(1)
}

type mockStations struct{ mock.Mock }

func (m *mockStations) List(ctx context.Context, sc scope.Scope) ([]model.Station, error) {
	args := m.Called(ctx, sc)
	s, _ := args.Get(0).([]model.Station)
	return s, args.Error(1)
}

type mockDashboard struct{ mock.Mock }

func (m *mockDashboard) Overview(ctx context.Context) (*core.Overview, error) {
	args := m.Called(ctx)
	o, _ := args.Get(0).(*core.Overview)
	return o, args.Error(1)
}

type mockOrganizations struct{ mock.Mock }

func (m *mockOrganizations) List(ctx context.Context) ([]model.Organization, error) {
	args := m.Called(ctx)
	o, _ := args.Get(0).([]model.Organization)
	return o, args.Error(1)
}

func (m *mockOrganizations) Get(ctx context.Context, id string) (*model.Organization, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*model.Organization)
	return o, args.Error(1)
}

type mockSender struct{ mock.Mock }

func (m *mockSender) Send(ctx context.Context, msg email.Message) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

var _ email.Sender = (*mockSender)(nil)

// orgArg matches an organization id pointer; an empty id matches nil.
func orgArg(id string) any {
	return mock.MatchedBy(func(p *string) bool {
		if id == "" {
			return p == nil
		}
		return p != nil && *p == id
	})
}
