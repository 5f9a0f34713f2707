package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/acadops/timetable-api/pkg/errors"
)

func TestIntegrityGuardBlocksWithDependents(t *testing.T) {
	guard := NewIntegrityGuard(zap.NewNop())
	guard.Protect("term", "section", func(ctx context.Context, id string) (int, error) {
		if id == "term-busy" {
			return 3, nil
		}
		return 0, nil
	})

	err := guard.EnsureDeletable(context.Background(), "term", "term-busy")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrDependencyExists.Code, appErr.Code)

	require.NoError(t, guard.EnsureDeletable(context.Background(), "term", "term-free"))
}

func TestIntegrityGuardChecksEveryEdge(t *testing.T) {
	guard := NewIntegrityGuard(zap.NewNop())
	guard.Protect("section", "section_course", func(ctx context.Context, id string) (int, error) {
		return 0, nil
	})
	guard.Protect("section", "enrollment", func(ctx context.Context, id string) (int, error) {
		return 5, nil
	})

	err := guard.EnsureDeletable(context.Background(), "section", "sec-1")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	details, ok := appErr.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "enrollment", details["kind"])
	assert.Equal(t, 5, details["count"])
}

func TestIntegrityGuardUnknownKindIsDeletable(t *testing.T) {
	guard := NewIntegrityGuard(zap.NewNop())
	require.NoError(t, guard.EnsureDeletable(context.Background(), "schedule", "sch-1"))
}

func TestIntegrityGuardPropagatesCounterError(t *testing.T) {
	guard := NewIntegrityGuard(zap.NewNop())
	guard.Protect("room", "schedule", func(ctx context.Context, id string) (int, error) {
		return 0, errors.New("db down")
	})

	err := guard.EnsureDeletable(context.Background(), "room", "room-1")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrInternal.Code, appErr.Code)
}
