package blob

import (
	"bytes"
	"context"
	"fmt"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	storage "google.golang.org/api/storage/v1"
)

const gcsPublicHost = "https://storage.googleapis.com"

type GCSStore struct {
	service *storage.Service
	bucket  string
}

// NewGCSStore uses the credentials file when given and application
// default credentials otherwise.
func NewGCSStore(ctx context.Context, bucket, credentialsFile string) (*GCSStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	svc, err := storage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}
	return &GCSStore{service: svc, bucket: bucket}, nil
}

func (s *GCSStore) Put(ctx context.Context, data []byte, contentType string) (string, error) {
	name := objectName(contentType)
	obj := &storage.Object{Name: name, ContentType: contentType}
	created, err := s.service.Objects.Insert(s.bucket, obj).
		Media(bytes.NewReader(data), googleapi.ContentType(contentType)).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	return fmt.Sprintf("%s/%s/%s", gcsPublicHost, s.bucket, created.Name), nil
}
