package foundation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mode string

func TestNormalizer(t *testing.T) {
	n := NewNormalizer(map[string]mode{"GPIO": "gpio", "console": "console"}, "console")

	assert.Equal(t, mode("gpio"), n.Normalize("  Gpio "))
	assert.Equal(t, mode("console"), n.Normalize("bogus"))
	assert.Equal(t, []string{"console", "gpio"}, n.Allowed())

	v, err := n.NormalizeWithError("")
	require.NoError(t, err)
	assert.Equal(t, mode("console"), v)

	_, err = n.NormalizeWithError("serial")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "allowed: console, gpio")
}
