package store_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/draftforge/draftforge-api/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestIsNotFoundError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "generic not found", err: store.ErrNotFound, want: true},
		{name: "job not found", err: store.ErrJobNotFound, want: true},
		{name: "material not found", err: store.ErrMaterialNotFound, want: true},
		{name: "wrapped job not found", err: fmt.Errorf("lookup: %w", store.ErrJobNotFound), want: true},
		{name: "status conflict", err: store.ErrStatusConflict, want: false},
		{name: "unrelated error", err: errors.New("boom"), want: false},
		{name: "nil error", err: nil, want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, store.IsNotFoundError(tt.err))
		})
	}
}

func TestIsConflictError(t *testing.T) {
	t.Parallel()

	assert.True(t, store.IsConflictError(store.ErrStatusConflict))
	assert.True(t, store.IsConflictError(fmt.Errorf("update: %w", store.ErrStatusConflict)))
	assert.False(t, store.IsConflictError(store.ErrNotFound))
	assert.False(t, store.IsConflictError(nil))
}

func TestStoreError(t *testing.T) {
	t.Parallel()

	t.Run("with wrapped error", func(t *testing.T) {
		t.Parallel()

		inner := errors.New("connection reset")
		err := store.NewStoreError("job", "claim", "query failed", inner)

		assert.Contains(t, err.Error(), "claim operation on job failed")
		assert.Contains(t, err.Error(), "connection reset")
		assert.ErrorIs(t, err, inner)
	})

	t.Run("without wrapped error", func(t *testing.T) {
		t.Parallel()

		err := store.NewStoreError("material", "save", "validation failed", nil)

		assert.Equal(t, "save operation on material failed: validation failed", err.Error())
		assert.Nil(t, errors.Unwrap(err))
	})
}
