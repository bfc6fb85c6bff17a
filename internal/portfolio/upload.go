package portfolio

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"path"
	"strconv"
	"strings"
	"time"
)

// DefaultMaxUploadBytes 单个上传文件的默认上限（5MB，含）。
const DefaultMaxUploadBytes int64 = 5 * 1024 * 1024

// ErrFileTooLarge is returned when an upload exceeds the configured limit.
var ErrFileTooLarge = errors.New("file size must be less than 5MB")

// CheckFileSize accepts size == limit and rejects anything above it.
func CheckFileSize(size, limit int64) error {
	if limit <= 0 {
		limit = DefaultMaxUploadBytes
	}
	if size > limit {
		return ErrFileTooLarge
	}
	return nil
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// GenerateObjectName 生成 "{毫秒时间戳}-{随机后缀}.{扩展名}" 形式的对象名。
func GenerateObjectName(originalName string, now time.Time) string {
	name := strconv.FormatInt(now.UnixMilli(), 10) + "-" + randomSuffix(6)
	if ext := FileExtension(originalName); ext != "" {
		name += "." + ext
	}
	return name
}

// FileExtension returns the lower-cased extension without the dot.
func FileExtension(filename string) string {
	ext := strings.TrimPrefix(path.Ext(strings.TrimSpace(filename)), ".")
	return strings.ToLower(ext)
}

// ResumePDFObjectName 简历 PDF 使用固定的目录与前缀。
func ResumePDFObjectName(now time.Time) string {
	return fmt.Sprintf("resumes/resume-%d.pdf", now.UnixMilli())
}

// LogoObjectName builds logos/{kind}-{millis}.{ext}; kind is "logo" or "small-logo".
func LogoObjectName(kind, originalName string, now time.Time) string {
	name := fmt.Sprintf("logos/%s-%d", kind, now.UnixMilli())
	if ext := FileExtension(originalName); ext != "" {
		name += "." + ext
	}
	return name
}

func randomSuffix(n int) string {
	var sb strings.Builder
	max := big.NewInt(int64(len(base36)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			sb.WriteByte(base36[time.Now().UnixNano()%int64(len(base36))])
			continue
		}
		sb.WriteByte(base36[idx.Int64()])
	}
	return sb.String()
}
