package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDisabledCacheIsSafe(t *testing.T) {
	c := New("", "", 0)
	assert.Nil(t, c)

	ctx := context.Background()
	c.Set(ctx, "k", []byte("v"), time.Minute)
	assert.Nil(t, c.Get(ctx, "k"))
	c.Delete(ctx, "k")
	assert.NoError(t, c.Ping(ctx))
	assert.NoError(t, c.Close())
}

func TestUnreachableRedisBehavesLikeMiss(t *testing.T) {
	c := New("127.0.0.1:1", "", 0)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	c.Set(ctx, "k", []byte("v"), time.Minute)
	assert.Nil(t, c.Get(ctx, "k"))
	assert.Error(t, c.Ping(ctx))
}
