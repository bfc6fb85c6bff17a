package worker

import (
	"context"
	"io"

	"github.com/hibiken/asynq"
	"github.com/minio/minio-go/v7"

	"portfolio/internal/storage"
)

// objectStore 是 worker 用到的对象存储能力，*storage.Client 实现该接口。
type objectStore interface {
	UploadFile(ctx context.Context, bucket, objectName string, reader io.Reader, size int64, contentType string) (*minio.UploadInfo, error)
	ListObjects(ctx context.Context, bucket, prefix string, limit int) ([]storage.ObjectMeta, error)
	DeleteObject(ctx context.Context, bucket, objectKey string) error
}

// htmlPrinter 把 HTML 打印为 PDF，*pdf.Renderer 实现该接口。
type htmlPrinter interface {
	HTMLToPDF(ctx context.Context, htmlContent string) ([]byte, error)
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}
