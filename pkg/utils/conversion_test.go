package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToBool(t *testing.T) {
	assert.True(t, ToBool(true))
	assert.False(t, ToBool(false))
	assert.True(t, ToBool(1))
	assert.False(t, ToBool(0))
	assert.True(t, ToBool(int64(5)))
	assert.True(t, ToBool(float64(1)))
	assert.False(t, ToBool(float64(0)))

	// TINYINT columns come back as raw bytes from the driver
	assert.True(t, ToBool([]byte("1")))
	assert.False(t, ToBool([]byte("0")))

	assert.True(t, ToBool("true"))
	assert.True(t, ToBool("YES"))
	assert.True(t, ToBool(" on "))
	assert.True(t, ToBool("t"))
	assert.False(t, ToBool("false"))
	assert.False(t, ToBool("nope"))
	assert.False(t, ToBool(""))
	assert.False(t, ToBool(nil))
}

func TestToString(t *testing.T) {
	assert.Equal(t, "", ToString(nil))
	assert.Equal(t, "hello", ToString("hello"))
	assert.Equal(t, "bytes", ToString([]byte("bytes")))
	assert.Equal(t, "42", ToString(42))
	assert.Equal(t, "true", ToString(true))
}
