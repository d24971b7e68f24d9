//go:build unit

package errs_test

import (
	"errors"
	"testing"

	"bloodconnect/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMark(t *testing.T) {
	t.Run("marked sentinel is visible to the standard errors.Is", func(t *testing.T) {
		cause := errs.New("units out of range")
		err := errs.Mark(cause, errs.ErrDomainValidation)

		require.ErrorIs(t, err, errs.ErrDomainValidation)
		require.ErrorIs(t, err, cause)
	})

	t.Run("nil cause yields the sentinel itself", func(t *testing.T) {
		err := errs.Mark(nil, errs.ErrRequestNotFound)
		assert.ErrorIs(t, err, errs.ErrRequestNotFound)
	})

	t.Run("cause stays inspectable through errors.As", func(t *testing.T) {
		cause := &timeoutErr{msg: "dial timed out"}
		err := errs.Mark(cause, errs.ErrStorageUnavailable)

		var te *timeoutErr
		require.ErrorAs(t, err, &te)
		assert.Equal(t, "dial timed out", te.msg)
	})

	t.Run("mark keeps the cause message", func(t *testing.T) {
		err := errs.Mark(errs.New("connection refused"), errs.ErrStorageUnavailable)
		assert.Contains(t, err.Error(), "connection refused")
	})
}

func TestWrap(t *testing.T) {
	t.Run("wrap of nil is nil", func(t *testing.T) {
		assert.NoError(t, errs.Wrap(nil, "context"))
	})

	t.Run("wrapped error keeps the chain", func(t *testing.T) {
		base := errors.New("base")
		err := errs.Wrap(base, "while saving")
		require.ErrorIs(t, err, base)
	})
}

type timeoutErr struct {
	msg string
}

func (e *timeoutErr) Error() string { return e.msg }
