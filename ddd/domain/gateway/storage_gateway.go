package gateway

import (
	"context"
	"io"
)

// StorageGateway 对象存储网关
type StorageGateway interface {
	// Put 上传对象，返回持久化保存的对象定位符
	Put(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) (string, error)

	// PresignedURL 为对象生成临时可访问地址，供转写服务拉取
	PresignedURL(ctx context.Context, locator string) (string, error)
}
