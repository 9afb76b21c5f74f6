package capture

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

// OSSSink uploads objects to an Aliyun OSS bucket.
type OSSSink struct {
	Bucket *oss.Bucket
	Prefix string
}

// NewOSSSink connects to endpoint and resolves bucketName.
func NewOSSSink(endpoint, accessKey, secretKey, bucketName, prefix string) (*OSSSink, error) {
	endpoint = strings.TrimSpace(endpoint)
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}
	client, err := oss.New(endpoint, accessKey, secretKey)
	if err != nil {
		return nil, fmt.Errorf("oss.New: %w", err)
	}
	bkt, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("oss bucket %s: %w", bucketName, err)
	}
	log.Printf("[CAPTURE] archiving to oss bucket=%s prefix=%q", bucketName, prefix)
	return &OSSSink{Bucket: bkt, Prefix: prefix}, nil
}

func (s *OSSSink) Put(ctx context.Context, key string, data []byte) error {
	if p := strings.Trim(s.Prefix, "/"); p != "" {
		key = p + "/" + key
	}
	return s.Bucket.PutObject(key, bytes.NewReader(data),
		oss.WithContext(ctx),
		oss.ContentType("image/webp"),
		oss.ContentDisposition("inline"),
	)
}
