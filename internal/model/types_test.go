package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONMapScanRoundTrip(t *testing.T) {
	in := JSONMap{"fasting_confirmed": true, "asa_score": "II"}

	val, err := in.Value()
	require.NoError(t, err)

	var out JSONMap
	require.NoError(t, out.Scan(val))
	assert.Equal(t, true, out["fasting_confirmed"])
	assert.Equal(t, "II", out["asa_score"])
}

func TestJSONMapNilColumn(t *testing.T) {
	var m JSONMap
	val, err := m.Value()
	require.NoError(t, err)
	assert.Nil(t, val)

	require.NoError(t, m.Scan(nil))
	assert.Nil(t, m)
}

func TestJSONMapScanRejectsNonJSON(t *testing.T) {
	var m JSONMap
	assert.Error(t, m.Scan(42))
}
