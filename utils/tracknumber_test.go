package utils

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var trackPattern = regexp.MustCompile(`^SRV-\d{6}-[2-9A-HJ-NP-Z]{5}$`)

func TestNewTrackNumber(t *testing.T) {
	now := time.Date(2025, 10, 15, 9, 30, 0, 0, time.UTC)
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		n, err := NewTrackNumber(now)
		require.NoError(t, err)
		assert.Regexp(t, trackPattern, n)
		assert.Contains(t, n, "-251015-")
		seen[n] = true
	}
	// 32^5 combinations; 200 draws colliding more than once is vanishingly unlikely.
	assert.Greater(t, len(seen), 198)
}

func TestNewPublicToken(t *testing.T) {
	a, b := NewPublicToken(), NewPublicToken()
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "-")
}
