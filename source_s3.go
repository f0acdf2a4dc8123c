package upload

import (
	"io/fs"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jszwec/s3fs/v2"
)

// NewBucketFS exposes a bucket as a read only fs.FS.
func NewBucketFS(client *s3.Client, bucket string) fs.FS {
	return s3fs.New(client, bucket)
}

// NewS3Source reads keys, or whole prefixes, from a bucket. Prefixes are
// archived like directories.
func NewS3Source(client *s3.Client, bucket string, keys []string, opts ...PathSourceOption) *PathSource {
	opts = append([]PathSourceOption{WithSourceFS(NewBucketFS(client, bucket))}, opts...)
	return NewPathSource(keys, opts...)
}
