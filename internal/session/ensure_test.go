package session

import (
	"context"
	"errors"
	"testing"

	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsurer(t *testing.T) {
	key := Key{Mode: models.ModePractice, PromptID: "p"}.String()
	assert.Equal(t, "practice::p", key)

	t.Run("creates once per key", func(t *testing.T) {
		e := NewEnsurer()
		calls := 0
		create := func(context.Context) (AttemptRef, error) {
			calls++
			return AttemptRef{SubmissionID: "s"}, nil
		}

		for i := 0; i < 3; i++ {
			ref, err := e.Ensure(context.Background(), key, create)
			require.NoError(t, err)
			assert.Equal(t, "s", ref.SubmissionID)
		}
		assert.Equal(t, 1, calls)

		got, ok := e.Lookup(key)
		assert.True(t, ok)
		assert.Equal(t, "s", got.SubmissionID)
	})

	t.Run("failures are retried", func(t *testing.T) {
		e := NewEnsurer()
		calls := 0
		create := func(context.Context) (AttemptRef, error) {
			calls++
			if calls == 1 {
				return AttemptRef{}, errors.New("boom")
			}
			return AttemptRef{SubmissionID: "s"}, nil
		}

		_, err := e.Ensure(context.Background(), key, create)
		assert.Error(t, err)
		_, ok := e.Lookup(key)
		assert.False(t, ok)

		_, err = e.Ensure(context.Background(), key, create)
		assert.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("forget allows a new attempt", func(t *testing.T) {
		e := NewEnsurer()
		n := 0
		create := func(context.Context) (AttemptRef, error) {
			n++
			return AttemptRef{AttemptNumber: n}, nil
		}

		first, _ := e.Ensure(context.Background(), key, create)
		e.Forget(key)
		second, _ := e.Ensure(context.Background(), key, create)

		assert.Equal(t, 1, first.AttemptNumber)
		assert.Equal(t, 2, second.AttemptNumber)
	})
}
