package storage

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listBucketResult(keys ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	b.WriteString(`<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">`)
	fmt.Fprintf(&b, "<Name>images</Name><Prefix></Prefix><KeyCount>%d</KeyCount><MaxKeys>1000</MaxKeys><IsTruncated>false</IsTruncated>", len(keys))
	for _, k := range keys {
		fmt.Fprintf(&b, `<Contents><Key>%s</Key><LastModified>2024-01-01T00:00:00.000Z</LastModified><ETag>"etag"</ETag><Size>1</Size><StorageClass>STANDARD</StorageClass></Contents>`, k)
	}
	b.WriteString(`</ListBucketResult>`)
	return b.String()
}

func newListingClient(t *testing.T, keys ...string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(listBucketResult(keys...)))
	}))
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	mc, err := minio.New(u.Host, &minio.Options{
		Creds:        credentials.NewStaticV4("test", "testsecret", ""),
		Region:       "us-east-1",
		BucketLookup: minio.BucketLookupPath,
	})
	require.NoError(t, err)
	return &Client{internalClient: mc}
}

// listingGoroutines counts live minio list goroutines.
func listingGoroutines() int {
	buf := make([]byte, 1<<20)
	n := runtime.Stack(buf, true)
	return strings.Count(string(buf[:n]), "listObjectsV2")
}

func TestListObjects_LimitReleasesLister(t *testing.T) {
	c := newListingClient(t, "a.png", "b.png", "c.png", "d.png")
	before := listingGoroutines()

	objects, err := c.ListObjects(context.Background(), BucketImages, "", 1)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "a.png", objects[0].Key)

	assert.Eventually(t, func() bool { return listingGoroutines() <= before }, 2*time.Second, 20*time.Millisecond)
}

func TestListObjects_ReturnsAllWithinLimit(t *testing.T) {
	c := newListingClient(t, "a.png", "b.png")

	objects, err := c.ListObjects(context.Background(), BucketImages, "", 10)
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "b.png", objects[1].Key)
	assert.Equal(t, int64(1), objects[1].Size)
}
