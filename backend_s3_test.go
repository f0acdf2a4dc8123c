package upload

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type fakeS3 struct {
	putErr  error
	headErr error
	puts    []*s3.PutObjectInput
	body    []byte
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.puts = append(f.puts, params)
	f.body, _ = io.ReadAll(params.Body)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	return &s3.HeadBucketOutput{}, nil
}

type fakePresigner struct {
	expires time.Duration
	key     string
}

func (f *fakePresigner) PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	opts := s3.PresignOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	f.expires = opts.Expires
	f.key = *params.Key
	return &v4.PresignedHTTPRequest{URL: "https://bucket.s3.amazonaws.com/" + f.key + "?X-Amz-Signature=abc"}, nil
}

func newTestS3Backend(client s3API, presigner s3PresignClient) *S3Backend {
	b := newS3Backend(client, presigner, "test-bucket").WithLogger(&mockLogger{})
	b.newID = func() string { return "0000-1111" }
	return b
}

func TestS3BackendCheckReachable(t *testing.T) {
	ctx := context.Background()

	t.Run("nil client", func(t *testing.T) {
		backend := &S3Backend{
			client: nil,
			bucket: "test-bucket",
		}

		err := backend.CheckReachable(ctx, Requirements{})
		if err == nil {
			t.Fatal("Expected error for nil client")
		}

		if !strings.Contains(err.Error(), "client not configured") {
			t.Errorf("Expected error message to contain 'client not configured', got '%s'", err.Error())
		}
	})

	t.Run("empty bucket", func(t *testing.T) {
		backend := &S3Backend{
			client: &fakeS3{},
			bucket: "",
		}

		err := backend.CheckReachable(ctx, Requirements{})
		if err == nil {
			t.Fatal("Expected error for empty bucket")
		}

		if !strings.Contains(err.Error(), "bucket not configured") {
			t.Errorf("Expected error message to contain 'bucket not configured', got '%s'", err.Error())
		}
	})

	t.Run("head bucket fails", func(t *testing.T) {
		denied := errors.New("access denied")
		backend := newTestS3Backend(&fakeS3{headErr: denied}, &fakePresigner{})

		if err := backend.CheckReachable(ctx, Requirements{}); !errors.Is(err, denied) {
			t.Errorf("Expected wrapped head bucket error, got %v", err)
		}
	})

	t.Run("reachable", func(t *testing.T) {
		backend := newTestS3Backend(&fakeS3{}, &fakePresigner{})

		if err := backend.CheckReachable(ctx, Requirements{}); err != nil {
			t.Errorf("Expected bucket to be reachable, got %v", err)
		}
	})
}

func TestS3BackendObjectKey(t *testing.T) {
	backend := newTestS3Backend(&fakeS3{}, &fakePresigner{})

	t.Run("preserved name", func(t *testing.T) {
		if key := backend.objectKey(true, "test.jpg"); *key != "0000-1111/test.jpg" {
			t.Errorf("Expected key '0000-1111/test.jpg', got '%s'", *key)
		}
	})

	t.Run("random name keeps extension", func(t *testing.T) {
		if key := backend.objectKey(false, "test.jpg"); *key != "0000-1111.jpg" {
			t.Errorf("Expected key '0000-1111.jpg', got '%s'", *key)
		}
	})

	t.Run("with base path", func(t *testing.T) {
		prefixed := newTestS3Backend(&fakeS3{}, &fakePresigner{}).WithBasePath("uploads")
		if key := prefixed.objectKey(true, "test.jpg"); *key != "uploads/0000-1111/test.jpg" {
			t.Errorf("Expected key 'uploads/0000-1111/test.jpg', got '%s'", *key)
		}
	})
}

func TestS3BackendUploadFile(t *testing.T) {
	ctx := context.Background()

	t.Run("presigned url", func(t *testing.T) {
		client := &fakeS3{}
		presigner := &fakePresigner{}
		backend := newTestS3Backend(client, presigner)

		req := Requirements{MaxRetention: Some(2 * time.Hour)}

		url, err := backend.UploadFile(ctx, req, NewFile("report.pdf", []byte("%PDF-1.4")))
		if err != nil {
			t.Fatalf("UploadFile: %v", err)
		}

		if url != "https://bucket.s3.amazonaws.com/0000-1111/report.pdf?X-Amz-Signature=abc" {
			t.Errorf("Unexpected url '%s'", url)
		}

		if presigner.expires != 2*time.Hour {
			t.Errorf("Expected presign expiry of 2h, got %v", presigner.expires)
		}

		if len(client.puts) != 1 {
			t.Fatalf("Expected one PutObject call, got %d", len(client.puts))
		}

		put := client.puts[0]
		if *put.Bucket != "test-bucket" || *put.Key != presigner.key {
			t.Errorf("Expected put and presign on the same object, got %s/%s", *put.Bucket, *put.Key)
		}

		if *put.ContentType != "application/pdf" {
			t.Errorf("Expected application/pdf, got %s", *put.ContentType)
		}

		if put.ACL != types.ObjectCannedACLPrivate {
			t.Errorf("Expected private ACL, got %s", put.ACL)
		}

		if string(client.body) != "%PDF-1.4" {
			t.Errorf("Unexpected body %q", client.body)
		}
	})

	t.Run("default expiry is the presign limit", func(t *testing.T) {
		presigner := &fakePresigner{}
		backend := newTestS3Backend(&fakeS3{}, presigner)

		if _, err := backend.UploadFile(ctx, Requirements{}, NewFile("a.txt", []byte("a"))); err != nil {
			t.Fatalf("UploadFile: %v", err)
		}

		if presigner.expires != s3MaxPresignTTL {
			t.Errorf("Expected %v, got %v", s3MaxPresignTTL, presigner.expires)
		}
	})

	t.Run("put fails", func(t *testing.T) {
		backend := newTestS3Backend(&fakeS3{putErr: errors.New("slow down")}, &fakePresigner{})

		_, err := backend.UploadFile(ctx, Requirements{}, NewFile("a.txt", []byte("a")))
		if err == nil || !strings.Contains(err.Error(), "slow down") {
			t.Errorf("Expected put error, got %v", err)
		}
	})
}

func TestS3BackendStaticChecks(t *testing.T) {
	backend := newTestS3Backend(&fakeS3{}, &fakePresigner{})

	if backend.StaticSettingsCheck(Requirements{MinRetention: Some(8 * 24 * time.Hour)}) {
		t.Error("Expected retention beyond the presign limit to be rejected")
	}

	if !backend.StaticSettingsCheck(Requirements{HTTPS: Some(true), PreserveName: Some(false)}) {
		t.Error("Expected https with random names to be supported")
	}

	if backend.StaticSettingsCheck(Requirements{MaxDownloads: Some[int64](1)}) {
		t.Error("Expected download limits to be unsupported")
	}
}
