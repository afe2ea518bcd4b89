package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMillis(t *testing.T) {
	got, err := ParseMillis("1700000000000")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(1700000000000), *got)
}

func TestParseMillisEmpty(t *testing.T) {
	got, err := ParseMillis("  ")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestParseMillisInvalid(t *testing.T) {
	_, err := ParseMillis("yesterday")
	assert.Error(t, err)

	_, err = ParseMillis("1.5")
	assert.Error(t, err)
}

func TestMillisToTime(t *testing.T) {
	got := MillisToTime(1700000000000)
	assert.Equal(t, time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC), got)
}

func TestParseIntDefault(t *testing.T) {
	assert.Equal(t, 25, ParseIntDefault("25", 20))
	assert.Equal(t, 20, ParseIntDefault("", 20))
	assert.Equal(t, 20, ParseIntDefault("many", 20))
}
