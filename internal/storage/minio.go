package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"portfolio/internal/config"
)

// 逻辑 Bucket 名称，公开 URL 与数据库中的路径均以此为准。
const (
	BucketImages              = "images"
	BucketResume              = "resume"
	BucketCertificates        = "certificates"
	BucketAIAutomations       = "ai-automations"
	BucketBusinessScreenshots = "business-screenshots"
	BucketFreelanceAssets     = "freelance-assets"
)

// Buckets lists every logical bucket the application writes to.
var Buckets = []string{
	BucketImages,
	BucketResume,
	BucketCertificates,
	BucketAIAutomations,
	BucketBusinessScreenshots,
	BucketFreelanceAssets,
}

// KnownBucket reports whether name is one of the logical buckets.
func KnownBucket(name string) bool {
	for _, b := range Buckets {
		if b == name {
			return true
		}
	}
	return false
}

// Client 封装 MinIO 客户端，按逻辑 Bucket 读写对象。
type Client struct {
	internalClient *minio.Client
	prefix         string
}

// ObjectMeta 描述 Bucket 中对象的关键信息。
type ObjectMeta struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// NewClient 根据配置初始化 MinIO 客户端，并确保所有 Bucket 存在。
func NewClient(cfg config.MinIOConfig) (*Client, error) {
	bucketLookup := minio.BucketLookupAuto
	switch strings.ToLower(strings.TrimSpace(cfg.BucketLookup)) {
	case "", "auto":
		bucketLookup = minio.BucketLookupAuto
	case "dns":
		bucketLookup = minio.BucketLookupDNS
	case "path":
		bucketLookup = minio.BucketLookupPath
	default:
		return nil, fmt.Errorf("invalid minio bucket lookup %q", cfg.BucketLookup)
	}

	internalClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure:       cfg.UseSSL,
		Region:       cfg.Region,
		BucketLookup: bucketLookup,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}

	c := &Client{internalClient: internalClient, prefix: cfg.BucketPrefix}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, bucket := range Buckets {
		physical := c.physical(bucket)
		exists, err := internalClient.BucketExists(ctx, physical)
		if err != nil {
			return nil, fmt.Errorf("check bucket %q: %w", physical, err)
		}
		if exists {
			continue
		}
		if !cfg.AutoCreateBucket {
			return nil, fmt.Errorf("bucket %q does not exist (auto create disabled)", physical)
		}
		if err := internalClient.MakeBucket(ctx, physical, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("make bucket %q: %w", physical, err)
		}
	}

	return c, nil
}

func (c *Client) physical(bucket string) string {
	return c.prefix + bucket
}

// UploadFile 将对象上传到指定 Bucket。
func (c *Client) UploadFile(ctx context.Context, bucket, objectName string, reader io.Reader, size int64, contentType string) (*minio.UploadInfo, error) {
	opts := minio.PutObjectOptions{ContentType: contentType}
	info, err := c.internalClient.PutObject(ctx, c.physical(bucket), objectName, reader, size, opts)
	if err != nil {
		return nil, fmt.Errorf("put object %s/%s: %w", bucket, objectName, err)
	}
	return &info, nil
}

// GetObject 读取对象内容，调用方负责关闭。
func (c *Client) GetObject(ctx context.Context, bucket, objectKey string) (io.ReadCloser, error) {
	obj, err := c.internalClient.GetObject(ctx, c.physical(bucket), objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s/%s: %w", bucket, objectKey, err)
	}
	return obj, nil
}

// StatObject returns size and content type without fetching the body.
func (c *Client) StatObject(ctx context.Context, bucket, objectKey string) (ObjectMeta, error) {
	info, err := c.internalClient.StatObject(ctx, c.physical(bucket), objectKey, minio.StatObjectOptions{})
	if err != nil {
		return ObjectMeta{}, fmt.Errorf("stat object %s/%s: %w", bucket, objectKey, err)
	}
	return ObjectMeta{
		Key:          info.Key,
		Size:         info.Size,
		ContentType:  info.ContentType,
		LastModified: info.LastModified,
	}, nil
}

// ListObjects 列出指定前缀下的对象元数据。
func (c *Client) ListObjects(ctx context.Context, bucket, prefix string, limit int) ([]ObjectMeta, error) {
	if limit <= 0 {
		limit = 50
	}
	ctx, cancel := context.WithCancel(ctx)
	objCh := c.internalClient.ListObjects(ctx, c.physical(bucket), minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})
	// 提前返回时取消并排空通道，minio 的列举 goroutine 才能退出。
	defer func() {
		cancel()
		for range objCh {
		}
	}()
	result := make([]ObjectMeta, 0, limit)
	for object := range objCh {
		if object.Err != nil {
			return nil, fmt.Errorf("list objects under %s/%s: %w", bucket, prefix, object.Err)
		}
		result = append(result, ObjectMeta{
			Key:          object.Key,
			Size:         object.Size,
			ContentType:  object.ContentType,
			LastModified: object.LastModified,
		})
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}

// DeleteObject 删除指定对象。
// 若对象不存在会被视为成功（幂等）。
func (c *Client) DeleteObject(ctx context.Context, bucket, objectKey string) error {
	objectKey = strings.TrimSpace(objectKey)
	if objectKey == "" {
		return nil
	}
	if err := c.internalClient.RemoveObject(ctx, c.physical(bucket), objectKey, minio.RemoveObjectOptions{}); err != nil {
		if IsNoSuchKey(err) {
			return nil
		}
		return fmt.Errorf("remove object %s/%s: %w", bucket, objectKey, err)
	}
	return nil
}
