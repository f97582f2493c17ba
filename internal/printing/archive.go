package printing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/imrishuroy/go-pos-orderflow/internal/aws"
)

// Archive keeps a copy of every printed receipt in S3.
type Archive struct {
	client  aws.S3API
	bucket  string
	nowFunc func() time.Time
}

// NewArchive returns nil when no bucket is configured; a nil Archive stores nothing.
func NewArchive(client aws.S3API, bucket string) *Archive {
	if client == nil || bucket == "" {
		return nil
	}
	return &Archive{client: client, bucket: bucket, nowFunc: time.Now}
}

// Store uploads the receipt text and returns its object key.
func (a *Archive) Store(ctx context.Context, orderID string, t PrintType, r Receipt) (string, error) {
	if a == nil {
		return "", nil
	}
	key := fmt.Sprintf("receipts/%s/%s-%d.txt", orderID, t, a.nowFunc().UnixNano())
	contentType := "text/plain; charset=utf-8"
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &a.bucket,
		Key:         &key,
		Body:        strings.NewReader(r.Text()),
		ContentType: &contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put receipt %s: %w", key, err)
	}
	return key, nil
}
