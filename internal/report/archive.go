package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectPutter is the part of *s3.Client the archive uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config configures the report archive bucket. An empty Endpoint uses AWS.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// NewS3Client returns a path-style S3 client, which also works against
// MinIO and Ceph RGW endpoints.
func NewS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	if cfg.AccessKey != "" {
		opts.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
	}
	return s3.New(opts)
}

// Archive stores rendered reports under reports/<date>/<organization>.html.
type Archive struct {
	client ObjectPutter
	bucket string
}

func NewArchive(client ObjectPutter, bucket string) *Archive {
	return &Archive{client: client, bucket: bucket}
}

// Key returns the object key for an organization's report on date.
func Key(date, organizationID string) string {
	return fmt.Sprintf("reports/%s/%s.html", date, organizationID)
}

func (a *Archive) Store(ctx context.Context, date, organizationID, html string) error {
	key := Key(date, organizationID)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(html),
		ContentType: aws.String("text/html; charset=utf-8"),
	})
	if err != nil {
		return fmt.Errorf("archive report %s: %w", key, err)
	}
	return nil
}
