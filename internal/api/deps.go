package api

import (
	"context"
	"io"

	"github.com/hibiken/asynq"
	"github.com/minio/minio-go/v7"

	"portfolio/internal/mailer"
	"portfolio/internal/storage"
)

// objectStore 是处理器依赖的对象存储能力，*storage.Client 实现该接口。
type objectStore interface {
	UploadFile(ctx context.Context, bucket, objectName string, reader io.Reader, size int64, contentType string) (*minio.UploadInfo, error)
	GetObject(ctx context.Context, bucket, objectKey string) (io.ReadCloser, error)
	StatObject(ctx context.Context, bucket, objectKey string) (storage.ObjectMeta, error)
	DeleteObject(ctx context.Context, bucket, objectKey string) error
}

// taskEnqueuer 由 *asynq.Client 实现。
type taskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// contactMailer 由 *mailer.Client 实现。
type contactMailer interface {
	Enabled() bool
	SendContactEmail(ctx context.Context, email mailer.ContactEmail) (mailer.Result, error)
}
