package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
)

var (
	errTransport = errors.New("connection refused")
	errClient    = errors.New("404")
)

func TestTripsAfterConsecutiveFailures(t *testing.T) {
	cb := NewCircuitBreaker(Settings{Name: "datastore", ConsecutiveFailures: 2, Timeout: time.Minute})

	assert.ErrorIs(t, cb.Execute(func() error { return errTransport }), errTransport)
	assert.ErrorIs(t, cb.Execute(func() error { return errTransport }), errTransport)
	assert.Equal(t, gobreaker.StateOpen, cb.State())

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
}

func TestIgnoredErrorsDoNotTrip(t *testing.T) {
	cb := NewCircuitBreaker(Settings{
		Name:                "datastore",
		ConsecutiveFailures: 1,
		IsFailure:           func(err error) bool { return errors.Is(err, errTransport) },
	})

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Execute(func() error { return errClient }), errClient)
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}
