package repository

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weatherhub/server/internal/model"
)

func TestReadingPatchIsEmpty(t *testing.T) {
	assert.True(t, ReadingPatch{}.IsEmpty())

	precipitation := 1.5
	assert.False(t, ReadingPatch{Precipitation: &precipitation}.IsEmpty())

	deviceName := "Test_Sensor"
	assert.False(t, ReadingPatch{DeviceName: &deviceName}.IsEmpty())
}

func TestReadingPatchSetClauses(t *testing.T) {
	deviceName := "Test_Sensor"
	temperature := 22.5
	patch := ReadingPatch{DeviceName: &deviceName, Temperature: &temperature}

	clauses, args := patch.setClauses(2)
	require.Len(t, clauses, 2)
	require.Len(t, args, 2)
	assert.Equal(t, "device_name = $2", clauses[0])
	assert.Equal(t, "temperature = $3", clauses[1])
	assert.Equal(t, deviceName, args[0])
	assert.Equal(t, temperature, args[1])
}

func TestGetReadingsByPageRange(t *testing.T) {
	// The range guard runs before any pool access, so a bare Store suffices.
	store := &Store{}
	ctx := context.Background()

	for _, page := range []int{-1, math.MaxInt, math.MaxInt/5 + 1} {
		_, err := store.GetReadingsByPage(ctx, page, 5)
		require.ErrorIs(t, err, model.ErrInvalidArgument, "page %d", page)
	}

	_, err := store.GetReadingsByPage(ctx, 0, 0)
	require.ErrorIs(t, err, model.ErrInvalidArgument)
}
