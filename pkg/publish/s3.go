package publish

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// UploadTimeout bounds a single PutObject call
const UploadTimeout = 30 * time.Second

// S3Options describes the bucket renders are uploaded to
type S3Options struct {
	Bucket    string
	Region    string
	Endpoint  string // Empty for AWS, set for S3-compatible stores
	AccessKey string // Empty to use the default credential chain
	SecretKey string
	Prefix    string // Key prefix, e.g. "renders/"
}

// S3Publisher uploads finished renders to a bucket
type S3Publisher struct {
	client  s3iface.S3API
	bucket  string
	prefix  string
	timeout time.Duration
}

// NewS3Publisher creates a session from opts and wraps an S3 client
func NewS3Publisher(opts S3Options) (*S3Publisher, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	awsConfig := &aws.Config{
		Region: aws.String(opts.Region),
	}
	if opts.AccessKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(opts.AccessKey, opts.SecretKey, "")
	}
	if opts.Endpoint != "" {
		awsConfig.Endpoint = aws.String(opts.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("create s3 session: %w", err)
	}

	return NewS3PublisherWithClient(s3.New(sess), opts.Bucket, opts.Prefix), nil
}

// NewS3PublisherWithClient wraps an existing client
func NewS3PublisherWithClient(client s3iface.S3API, bucket, prefix string) *S3Publisher {
	return &S3Publisher{
		client:  client,
		bucket:  bucket,
		prefix:  prefix,
		timeout: UploadTimeout,
	}
}

// Key returns the object key used for name
func (p *S3Publisher) Key(name string) string {
	if p.prefix == "" {
		return name
	}
	return path.Join(p.prefix, name)
}

// Publish uploads body under the prefixed name and returns the object key
func (p *S3Publisher) Publish(ctx context.Context, name string, body []byte, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	key := p.Key(name)
	_, err := p.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return key, nil
}
