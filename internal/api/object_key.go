package api

import (
	"strings"
	"unicode/utf8"
)

const maxObjectKeyLength = 512

// isValidPublicObjectKey 拒绝路径穿越与畸形的对象 key。
func isValidPublicObjectKey(key string) bool {
	if key == "" || len(key) > maxObjectKeyLength || !utf8.ValidString(key) {
		return false
	}
	if strings.HasPrefix(key, "/") || strings.HasSuffix(key, "/") {
		return false
	}
	if strings.Contains(key, "..") || strings.Contains(key, "\\") || strings.Contains(key, "//") {
		return false
	}
	return !strings.ContainsAny(key, "\x00\r\n")
}
