package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	err := E(KindNotFound, "product %d not found", 42)
	require.Equal(t, KindNotFound, KindOf(err))
	require.Equal(t, "product 42 not found", err.Error())

	// kind survives wrapping with fmt.Errorf
	wrapped := fmt.Errorf("create order: %w", err)
	require.Equal(t, KindNotFound, KindOf(wrapped))

	require.Equal(t, KindInternal, KindOf(errors.New("plain")))
	require.Equal(t, KindInternal, KindOf(nil))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("signature mismatch")
	err := Wrap(KindValidation, cause, "invalid signature")

	require.Equal(t, KindValidation, KindOf(err))
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "invalid signature")
	require.Contains(t, err.Error(), "signature mismatch")
}
