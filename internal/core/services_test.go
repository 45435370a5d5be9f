package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServices(t *testing.T) {
	db := &mockDB{}

	svcs := NewServices(db, Options{JWTSecret: testSecret, JWTIssuer: "dashboard"})

	require.NotNil(t, svcs)
	assert.NotNil(t, svcs.Station)
	assert.NotNil(t, svcs.Detection)
	assert.NotNil(t, svcs.ImpactFactor)
	assert.NotNil(t, svcs.Organization)
	assert.NotNil(t, svcs.Profile)
	assert.NotNil(t, svcs.Auth)
	assert.NotNil(t, svcs.Metrics)
	assert.NotNil(t, svcs.Dashboard)
	assert.NotNil(t, svcs.Scope)
}
