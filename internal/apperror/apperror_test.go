package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfThroughWrapping(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("consult: %w", StoreUnavailable("find client", cause))

	assert.Equal(t, KindStoreUnavailable, KindOf(err))
	assert.True(t, errors.Is(err, ErrStoreUnavailable))
	assert.False(t, errors.Is(err, ErrInvalidArgument))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "consult: find client: store unavailable: connection refused", err.Error())
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("boom")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestConstructorsMessage(t *testing.T) {
	err := InvalidArgument("calculate", "installment count must be positive, got %d", 0)
	assert.Equal(t, "calculate: installment count must be positive, got 0", err.Error())
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	assert.Equal(t, KindNotFound, KindOf(NotFound("delete product", "product %q not found", "9")))
	assert.Equal(t, KindConflict, KindOf(Conflict("consult", "already consulted today")))
}
