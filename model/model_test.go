package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureMapCHW(t *testing.T) {

	// 2 channels of a 2x3 map
	chw := []float32{
		0, 1, 2,
		3, 4, 5,

		10, 11, 12,
		13, 14, 15,
	}

	fm, err := NewFeatureMapCHW(chw, 2, 2, 3)
	require.NoError(t, err)

	assert.Equal(t, 2, fm.Height)
	assert.Equal(t, 3, fm.Width)
	assert.Equal(t, []float32{4, 14}, fm.Cell(1, 1))
	assert.Equal(t, []float32{2, 12}, fm.Cell(0, 2))

	_, err = NewFeatureMapCHW(chw, 3, 2, 3)
	assert.Error(t, err)
}

func TestNewFeatureMap(t *testing.T) {

	fm, err := NewFeatureMap([]float32{1, 2, 3, 4, 5, 6, 7, 8}, 2, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []float32{7, 8}, fm.Cell(1, 1))

	_, err = NewFeatureMap([]float32{1, 2, 3}, 2, 2, 2)
	assert.Error(t, err)
}
