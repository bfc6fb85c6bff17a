package portfolio

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCheckFileSize(t *testing.T) {
	const limit = 5 * 1024 * 1024

	assert.NoError(t, CheckFileSize(limit, limit))
	assert.NoError(t, CheckFileSize(0, limit))
	assert.ErrorIs(t, CheckFileSize(limit+1, limit), ErrFileTooLarge)
	// non-positive limit falls back to the default
	assert.ErrorIs(t, CheckFileSize(DefaultMaxUploadBytes+1, 0), ErrFileTooLarge)
}

func TestGenerateObjectName(t *testing.T) {
	now := time.UnixMilli(1700000000123)

	name := GenerateObjectName("Screenshot.PNG", now)
	assert.Regexp(t, regexp.MustCompile(`^1700000000123-[0-9a-z]{6}\.png$`), name)

	bare := GenerateObjectName("README", now)
	assert.Regexp(t, regexp.MustCompile(`^1700000000123-[0-9a-z]{6}$`), bare)

	assert.NotEqual(t, GenerateObjectName("a.png", now), GenerateObjectName("a.png", now))
}

func TestFixedObjectNames(t *testing.T) {
	now := time.UnixMilli(42)
	assert.Equal(t, "resumes/resume-42.pdf", ResumePDFObjectName(now))
	assert.Equal(t, "logos/small-logo-42.svg", LogoObjectName("small-logo", "icon.SVG", now))
}
