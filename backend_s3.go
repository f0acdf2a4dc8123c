package upload

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/goliatone/go-print"
	"github.com/google/uuid"
)

var _ Backend = &S3Backend{}

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

type s3PresignClient interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

const (
	// s3MaxPutSize is the largest object a single PutObject call accepts.
	s3MaxPutSize = 5 << 30
	// s3MaxPresignTTL is the longest lifetime of a SigV4 presigned URL.
	s3MaxPresignTTL = 7 * 24 * time.Hour
)

// S3Backend stores files in a private bucket and hands out presigned GET
// URLs that expire after the effective retention.
type S3Backend struct {
	name      string
	client    s3API
	bucket    string
	basePath  string
	presigner s3PresignClient
	caps      Capabilities
	logger    Logger
	newID     func() string
}

func NewS3Backend(client *s3.Client, bucket string) *S3Backend {
	return newS3Backend(client, s3.NewPresignClient(client), bucket)
}

func newS3Backend(client s3API, presigner s3PresignClient, bucket string) *S3Backend {
	return &S3Backend{
		name:      "s3",
		client:    client,
		bucket:    bucket,
		presigner: presigner,
		caps: Capabilities{
			HTTPS:        true,
			MaxSize:      s3MaxPutSize,
			MinRetention: time.Second,
			MaxRetention: s3MaxPresignTTL,
		},
		logger: &DefaultLogger{},
		newID:  uuid.NewString,
	}
}

func (p *S3Backend) WithLogger(logger Logger) *S3Backend {
	if logger != nil {
		p.logger = logger
	}
	return p
}

func (p *S3Backend) WithBasePath(basePath string) *S3Backend {
	p.basePath = basePath
	return p
}

func (p *S3Backend) WithName(name string) *S3Backend {
	p.name = name
	return p
}

func (p *S3Backend) Name() string {
	return p.name
}

func (p *S3Backend) Capabilities() Capabilities {
	return p.caps
}

func (p *S3Backend) StaticSettingsCheck(req Requirements) bool {
	return Satisfies(req, p.caps)
}

func (p *S3Backend) StaticFileCheck(_ Requirements, file *File) bool {
	return file.Size() <= p.caps.MaxSize
}

// CheckReachable issues a HeadBucket call.
func (p *S3Backend) CheckReachable(ctx context.Context, _ Requirements) error {
	if p.client == nil {
		return fmt.Errorf("s3 backend: client not configured")
	}

	if p.bucket == "" {
		return fmt.Errorf("s3 backend: bucket not configured")
	}

	_, err := p.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(p.bucket)})
	if err != nil {
		return fmt.Errorf("s3 backend: head bucket: %w", err)
	}

	return nil
}

func (p *S3Backend) UploadFile(ctx context.Context, req Requirements, file *File) (string, error) {
	key := p.objectKey(DeterminePreserveName(req, p.caps), file.Name())

	p.logger.Debug("upload object", "bucket", p.bucket, "key", *key)

	res, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         key,
		Body:        bytes.NewReader(file.Content()),
		ContentType: aws.String(file.Mimetype()),
		ACL:         types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return "", fmt.Errorf("s3 backend: put object: %w", err)
	}

	p.logger.Debug("upload object", "res", print.MaybeHighlightJSON(res))

	signed, err := p.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    key,
	}, s3.WithPresignExpires(EffectiveRetention(req, p.caps)))
	if err != nil {
		return "", fmt.Errorf("s3 backend: presign: %w", err)
	}

	return signed.URL, nil
}

// objectKey keeps the name under a random prefix, or replaces it with a
// random id that keeps the extension.
func (p *S3Backend) objectKey(preserve bool, name string) *string {
	id := p.newID()

	key := id + filepath.Ext(name)
	if preserve {
		key = path.Join(id, name)
	}

	if p.basePath == "" {
		return aws.String(key)
	}
	return aws.String(path.Join(p.basePath, key))
}
