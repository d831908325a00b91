package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsBareAddress(t *testing.T) {
	opt, err := Options("eu1-example.upstash.io:6379", "s3cret")
	require.NoError(t, err)

	assert.Equal(t, "eu1-example.upstash.io:6379", opt.Addr)
	assert.Equal(t, "default", opt.Username)
	assert.Equal(t, "s3cret", opt.Password)
	assert.NotNil(t, opt.TLSConfig)
}

func TestOptionsFullURL(t *testing.T) {
	opt, err := Options("redis://localhost:6379/2", "pw")
	require.NoError(t, err)

	assert.Equal(t, "localhost:6379", opt.Addr)
	assert.Equal(t, 2, opt.DB)
	assert.Equal(t, "pw", opt.Password)
	assert.Nil(t, opt.TLSConfig)
}

func TestOptionsInvalid(t *testing.T) {
	_, err := Options("http://localhost", "")
	assert.Error(t, err)
}
