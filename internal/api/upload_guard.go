package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/dutchcoders/go-clamd"
	"github.com/gabriel-vasile/mimetype"

	"portfolio/internal/metrics"
	"portfolio/internal/portfolio"
	"portfolio/internal/storage"
)

var (
	imageMIMETypes = []string{"image/png", "image/jpeg", "image/webp", "image/gif", "image/svg+xml", "image/x-icon"}
	pdfMIMETypes   = []string{"application/pdf"}
)

// bucketMIMETypes 每个 Bucket 允许的内容类型（按内容嗅探，不信任客户端声明）。
var bucketMIMETypes = map[string][]string{
	storage.BucketImages:              imageMIMETypes,
	storage.BucketResume:              pdfMIMETypes,
	storage.BucketCertificates:        append(append([]string{}, imageMIMETypes...), pdfMIMETypes...),
	storage.BucketAIAutomations:       imageMIMETypes,
	storage.BucketBusinessScreenshots: imageMIMETypes,
	storage.BucketFreelanceAssets:     append(append([]string{}, imageMIMETypes...), pdfMIMETypes...),
}

// uploadRejection is a validation failure reported to the client as 400.
type uploadRejection struct {
	reason string
	msg    string
}

func (e *uploadRejection) Error() string { return e.msg }

func rejectUpload(reason, msg string) error {
	return &uploadRejection{reason: reason, msg: msg}
}

// isUploadRejection reports whether err came from the guard rather than from storage.
func isUploadRejection(err error) bool {
	var rej *uploadRejection
	return errors.As(err, &rej)
}

// virusScanner 抽象 clamd，便于测试替换。
type virusScanner interface {
	Scan(r io.Reader) (clean bool, err error)
}

type clamdScanner struct {
	client *clamd.Clamd
}

func (s clamdScanner) Scan(r io.Reader) (bool, error) {
	abortChan := make(chan bool)
	defer close(abortChan)
	results, err := s.client.ScanStream(r, abortChan)
	if err != nil {
		return false, fmt.Errorf("scan stream: %w", err)
	}
	clean := true
	for result := range results {
		if result.Status != clamd.RES_OK {
			clean = false
		}
	}
	return clean, nil
}

// UploadGuard 在任何存储调用之前校验上传文件：大小、内容类型、可选病毒扫描。
type UploadGuard struct {
	maxBytes int64
	scanner  virusScanner
}

// NewUploadGuard builds a guard; an empty clamdAddr disables scanning.
func NewUploadGuard(maxBytes int64, clamdAddr string) *UploadGuard {
	g := &UploadGuard{maxBytes: maxBytes}
	if addr := strings.TrimSpace(clamdAddr); addr != "" {
		g.scanner = clamdScanner{client: clamd.NewClamd(addr)}
	}
	return g
}

// acceptedFile 是通过校验的上传文件。
type acceptedFile struct {
	header      *multipart.FileHeader
	contentType string
}

// Check validates the file for bucket. The size check runs before the file is opened.
func (g *UploadGuard) Check(fh *multipart.FileHeader, bucket string) (*acceptedFile, error) {
	if fh == nil {
		return nil, rejectUpload("missing", "missing file")
	}
	if err := portfolio.CheckFileSize(fh.Size, g.maxBytes); err != nil {
		metrics.UploadRejected(bucket, "size")
		return nil, rejectUpload("size", err.Error())
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return nil, fmt.Errorf("detect content type: %w", err)
	}
	if mtype.Is("application/octet-stream") {
		metrics.UploadRejected(bucket, "mime")
		return nil, rejectUpload("mime", "unrecognised file type")
	}
	if !mimeAllowed(mtype, bucketMIMETypes[bucket]) {
		metrics.UploadRejected(bucket, "mime")
		return nil, rejectUpload("mime", fmt.Sprintf("file type %s is not allowed", mtype.String()))
	}

	if g.scanner != nil {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("rewind upload: %w", err)
		}
		clean, err := g.scanner.Scan(f)
		if err != nil {
			return nil, fmt.Errorf("scan upload: %w", err)
		}
		if !clean {
			metrics.UploadRejected(bucket, "virus")
			return nil, rejectUpload("virus", "malicious file detected")
		}
	}

	contentType := mtype.String()
	if i := strings.Index(contentType, ";"); i > 0 {
		contentType = contentType[:i]
	}
	return &acceptedFile{header: fh, contentType: contentType}, nil
}

func mimeAllowed(mtype *mimetype.MIME, allowed []string) bool {
	for _, a := range allowed {
		if mtype.Is(a) {
			return true
		}
	}
	return false
}
