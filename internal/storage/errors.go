package storage

import (
	"errors"
	"strings"

	"github.com/minio/minio-go/v7"
)

var (
	missingKeyCodes    = map[string]bool{"nosuchkey": true, "notfound": true}
	missingBucketCodes = map[string]bool{"nosuchbucket": true}
)

// errorCode 取出 minio 错误码，非 minio 错误返回空串。
func errorCode(err error) string {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		return strings.ToLower(strings.TrimSpace(resp.Code))
	}
	return ""
}

// IsNoSuchKey reports whether err says the object does not exist.
// 只认 S3 错误码或其标准文案，网关的其他 "not found" 不算。
func IsNoSuchKey(err error) bool {
	if err == nil {
		return false
	}
	if code := errorCode(err); code != "" {
		return missingKeyCodes[code]
	}
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "nosuchkey") || strings.Contains(lower, "specified key does not exist")
}

// IsNoSuchBucket reports whether err says the bucket does not exist.
func IsNoSuchBucket(err error) bool {
	if err == nil {
		return false
	}
	if code := errorCode(err); code != "" {
		return missingBucketCodes[code]
	}
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "nosuchbucket") || strings.Contains(lower, "specified bucket does not exist")
}

// IsObjectMissing 对公开读取而言，Key 或 Bucket 不存在都按 404 处理。
func IsObjectMissing(err error) bool {
	return IsNoSuchKey(err) || IsNoSuchBucket(err)
}
