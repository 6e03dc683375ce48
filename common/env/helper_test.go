package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHelpers(t *testing.T) {
	t.Setenv("APIPROBE_TEST_BOOL", "true")
	t.Setenv("APIPROBE_TEST_BAD_BOOL", "maybe")
	t.Setenv("APIPROBE_TEST_INT", " 42 ")
	t.Setenv("APIPROBE_TEST_FLOAT", "0.25")
	t.Setenv("APIPROBE_TEST_STRING", "hello")

	assert.True(t, Bool("APIPROBE_TEST_BOOL", false))
	assert.True(t, Bool("APIPROBE_TEST_BAD_BOOL", true))
	assert.False(t, Bool("APIPROBE_TEST_MISSING", false))

	assert.Equal(t, 42, Int("APIPROBE_TEST_INT", 1))
	assert.Equal(t, 7, Int("APIPROBE_TEST_MISSING", 7))

	assert.InDelta(t, 0.25, Float64("APIPROBE_TEST_FLOAT", 1), 1e-9)
	assert.InDelta(t, 30.0, Float64("APIPROBE_TEST_MISSING", 30), 1e-9)

	assert.Equal(t, "hello", String("APIPROBE_TEST_STRING", "x"))
	assert.Equal(t, "x", String("APIPROBE_TEST_MISSING", "x"))
}
