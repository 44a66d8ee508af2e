package module

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/devsapp/serverless-style-transfer-api/pkg/config"
)

func TestMemoryImageStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryImageStore()
	src := []byte("png bytes")
	assert.Nil(t, store.Put(ctx, "a", src, "image/png"))
	src[0] = 'x'

	data, ct, err := store.Get(ctx, "a")
	assert.Nil(t, err)
	assert.Equal(t, "png bytes", string(data))
	assert.Equal(t, "image/png", ct)
	assert.Equal(t, 1, store.Len())

	_, err = store.ShareURL(ctx, "a")
	assert.ErrorIs(t, err, ErrShareNotSupported)

	assert.Nil(t, store.Delete(ctx, "a"))
	_, _, err = store.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrImageNotFound)
	assert.Equal(t, 0, store.Len())
}

func TestNewImageStoreDefault(t *testing.T) {
	assert.Nil(t, config.InitConfig(""))
	store, err := NewImageStore()
	assert.Nil(t, err)
	_, ok := store.(*MemoryImageStore)
	assert.True(t, ok)
}

// TestOss needs a real bucket, see OSS_TEST_BUCKET
func TestOss(t *testing.T) {
	bucket := os.Getenv("OSS_TEST_BUCKET")
	if bucket == "" {
		t.Skip("OSS_TEST_BUCKET not set")
	}
	config.ConfigGlobal.Bucket = bucket
	ossManager, err := NewOssManager()
	assert.Nil(t, err)
	ctx := context.Background()
	objKey := "test/oss"
	// upload
	err = ossManager.Put(ctx, objKey, []byte("oss test"), "text/plain")
	assert.Nil(t, err)

	// download
	data, _, err := ossManager.Get(ctx, objKey)
	assert.Nil(t, err)
	assert.Equal(t, "oss test", string(data))

	url, err := ossManager.ShareURL(ctx, objKey)
	assert.Nil(t, err)
	assert.NotEqual(t, "", url)

	// delete
	err = ossManager.Delete(ctx, objKey)
	assert.Nil(t, err)
	_, _, err = ossManager.Get(ctx, objKey)
	assert.ErrorIs(t, err, ErrImageNotFound)
}
