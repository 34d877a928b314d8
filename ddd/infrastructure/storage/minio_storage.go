package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"

	"transcription-service/ddd/domain/gateway"
	"transcription-service/pkg/logger"
)

const locatorScheme = "s3://"

// objectClient minio 客户端中用到的方法
type objectClient interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64,
		opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration,
		reqParams url.Values) (*url.URL, error)
}

// MinioStorage MinIO存储实现
type MinioStorage struct {
	client        objectClient
	bucketName    string
	presignExpiry time.Duration
}

// NewMinioStorage 创建MinIO存储实例
func NewMinioStorage(client *minio.Client, bucketName string, presignExpiry time.Duration) gateway.StorageGateway {
	return newMinioStorage(client, bucketName, presignExpiry)
}

func newMinioStorage(client objectClient, bucketName string, presignExpiry time.Duration) *MinioStorage {
	if presignExpiry <= 0 {
		presignExpiry = time.Hour
	}
	return &MinioStorage{client: client, bucketName: bucketName, presignExpiry: presignExpiry}
}

// Put 上传视频，返回 s3://bucket/key 形式的定位符
func (s *MinioStorage) Put(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	info, err := s.client.PutObject(ctx, s.bucketName, objectKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		logger.Error("Failed to upload video to MinIO", map[string]interface{}{
			"object_key": objectKey,
			"error":      err.Error(),
		})
		return "", fmt.Errorf("upload video to minio failed: %w", err)
	}

	logger.Info("Video uploaded to MinIO", map[string]interface{}{
		"object_key": objectKey,
		"size":       info.Size,
	})
	return locatorScheme + s.bucketName + "/" + objectKey, nil
}

// PresignedURL 生成带签名的临时下载地址
func (s *MinioStorage) PresignedURL(ctx context.Context, locator string) (string, error) {
	bucket, key, err := parseLocator(locator, s.bucketName)
	if err != nil {
		return "", err
	}
	u, err := s.client.PresignedGetObject(ctx, bucket, key, s.presignExpiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign %s failed: %w", locator, err)
	}
	return u.String(), nil
}

// parseLocator 拆分定位符；没有 scheme 的旧数据按默认桶中的对象键处理
func parseLocator(locator, defaultBucket string) (string, string, error) {
	if !strings.HasPrefix(locator, locatorScheme) {
		key := strings.TrimPrefix(locator, "/")
		if key == "" {
			return "", "", fmt.Errorf("empty storage locator")
		}
		return defaultBucket, key, nil
	}
	rest := strings.TrimPrefix(locator, locatorScheme)
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid storage locator %q", locator)
	}
	return bucket, key, nil
}
