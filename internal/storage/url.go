package storage

import (
	"net/url"
	"strings"
)

// PublicPathPrefix 是对外暴露对象的路由前缀。
const PublicPathPrefix = "/storage/v1/object/public/"

// PublicURL builds {base}/storage/v1/object/public/{bucket}/{path}. An empty path yields "".
func PublicURL(base, bucket, objectPath string) string {
	objectPath = strings.TrimLeft(strings.TrimSpace(objectPath), "/")
	if objectPath == "" {
		return ""
	}
	segments := strings.Split(objectPath, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.TrimRight(base, "/") + PublicPathPrefix + bucket + "/" + strings.Join(segments, "/")
}
