package connectivity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckConnectionUpdatesCachedState(t *testing.T) {
	m := NewMonitor()
	assert.False(t, m.IsInternetConnected(), "monitor starts offline")

	m.lookup = func(ctx context.Context, host string) error { return nil }
	assert.True(t, m.CheckConnection(context.Background()))
	assert.True(t, m.IsInternetConnected())

	m.lookup = func(ctx context.Context, host string) error { return errors.New("no such host") }
	assert.False(t, m.CheckConnection(context.Background()))
	assert.False(t, m.IsInternetConnected())
}

func TestLookupErrorIsNeverPropagated(t *testing.T) {
	m := NewMonitor()
	m.lookup = func(ctx context.Context, host string) error { return errors.New("dns timeout") }
	// Solo cambia el flag, no hay error que manejar.
	assert.False(t, m.CheckConnection(context.Background()))
}
