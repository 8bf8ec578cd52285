package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRanger(t *testing.T) {
	// Dimension parsing
	{
		i1, i2, err := ParseDim(":", 10)
		require.NoError(t, err)
		assert.Equal(t, 1, i1)
		assert.Equal(t, 10, i2)
		i1, i2, _ = ParseDim(":5", 10)
		assert.Equal(t, 1, i1)
		assert.Equal(t, 5, i2)
		i1, i2, _ = ParseDim("5:5", 10)
		assert.Equal(t, 5, i1)
		assert.Equal(t, 5, i2)
		i1, i2, _ = ParseDim("7:", 10)
		assert.Equal(t, 7, i1)
		assert.Equal(t, 10, i2)
		i1, i2, _ = ParseDim("end", 10)
		assert.Equal(t, 10, i1)
		assert.Equal(t, 10, i2)
		i1, i2, _ = ParseDim("2", 10)
		assert.Equal(t, 2, i1)
		assert.Equal(t, 2, i2)
		i1, i2, _ = ParseDim("3:end", 10)
		assert.Equal(t, 3, i1)
		assert.Equal(t, 10, i2)
	}
	// Id lists
	{
		ids, err := ParseIDs("7, 3, 3, 1", 10)
		require.NoError(t, err)
		assert.Equal(t, Index{7, 3, 3, 1}, ids)

		ids, err = ParseIDs("1:3,end", 5)
		require.NoError(t, err)
		assert.Equal(t, Index{1, 2, 3, 5}, ids)

		ids, err = ParseIDs(":", 4)
		require.NoError(t, err)
		assert.Equal(t, Index{1, 2, 3, 4}, ids)

		ids, err = ParseIDs(" ", 4)
		require.NoError(t, err)
		assert.Nil(t, ids)
	}
	// Errors
	{
		for _, list := range []string{"a", "1:2:3", "4:2", "1,,2", "x:3"} {
			_, err := ParseIDs(list, 5)
			assert.Error(t, err, list)
		}
		_, err := ParseIDs("0", 5)
		assert.ErrorIs(t, err, ErrInvalidIndex)
		_, err = ParseIDs("2:6", 5)
		assert.ErrorIs(t, err, ErrInvalidIndex)
	}
}
