package module

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"

	"github.com/devsapp/serverless-style-transfer-api/pkg/config"
)

// OssManager image store on an oss bucket
type OssManager struct {
	bucket      *oss.Bucket
	prefix      string
	shareExpire int64
}

func NewOssManager() (*OssManager, error) {
	client, err := oss.New(config.ConfigGlobal.OssEndpoint, config.ConfigGlobal.AccessKeyId,
		config.ConfigGlobal.AccessKeySecret, oss.SecurityToken(config.ConfigGlobal.AccessKeyToken))
	if err != nil {
		return nil, err
	}
	bucket, err := client.Bucket(config.ConfigGlobal.Bucket)
	if err != nil {
		return nil, err
	}
	return &OssManager{
		bucket:      bucket,
		prefix:      strings.Trim(config.ConfigGlobal.OssPrefix, "/"),
		shareExpire: config.ConfigGlobal.ShareExpire,
	}, nil
}

func (o *OssManager) objectKey(key string) string {
	if o.prefix == "" {
		return key
	}
	return fmt.Sprintf("%s/%s", o.prefix, key)
}

func (o *OssManager) Put(_ context.Context, key string, data []byte, contentType string) error {
	return o.bucket.PutObject(o.objectKey(key), bytes.NewReader(data), oss.ContentType(contentType))
}

// Get the object body, content type sniffed from the bytes
func (o *OssManager) Get(_ context.Context, key string) ([]byte, string, error) {
	body, err := o.bucket.GetObject(o.objectKey(key))
	if err != nil {
		if isOssNotFound(err) {
			return nil, "", ErrImageNotFound
		}
		return nil, "", err
	}
	data, err := io.ReadAll(body)
	body.Close()
	if err != nil {
		return nil, "", err
	}
	return data, http.DetectContentType(data), nil
}

func (o *OssManager) Delete(_ context.Context, key string) error {
	return o.bucket.DeleteObject(o.objectKey(key))
}

// ShareURL signed GET url valid for ShareExpire seconds
func (o *OssManager) ShareURL(_ context.Context, key string) (string, error) {
	return o.bucket.SignURL(o.objectKey(key), oss.HTTPGet, o.shareExpire)
}

func isOssNotFound(err error) bool {
	var serviceErr oss.ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.StatusCode == http.StatusNotFound
	}
	return false
}

// NewImageStore store selected by config.ImageStoreMode
func NewImageStore() (ImageStore, error) {
	if config.ConfigGlobal.UseOss() {
		return NewOssManager()
	}
	return NewMemoryImageStore(), nil
}
