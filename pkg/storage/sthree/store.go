// Package sthree implements the blob store interface on top of an
// S3-compatible object store.
package sthree

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/starworks/depot/pkg/storage"
	"github.com/starworks/depot/pkg/storage/status"
)

// PageSize used when listing bucket keys
const PageSize = 1000

// Option to configure the S3 store
type Option func(*s3FS)

// Bucket sets the bucket objects are stored in
func Bucket(bucket string) Option {
	return func(fs *s3FS) {
		fs.bucket = bucket
	}
}

// AWSConfig sets the AWS configuration (credentials, endpoint, region)
func AWSConfig(cfg *aws.Config) Option {
	return func(fs *s3FS) {
		fs.awsConfig = cfg
	}
}

// New creates a blob store backed by an S3 bucket
func New(option Option, options ...Option) storage.Store {
	fs := new(s3FS)
	option(fs)
	for _, apply := range options {
		apply(fs)
	}

	fs.s3 = s3.New(session.Must(session.NewSession(fs.awsConfig)))
	fs.uploader = s3manager.NewUploaderWithClient(fs.s3)
	return fs
}

type s3FS struct {
	bucket    string
	awsConfig *aws.Config
	s3        *s3.S3
	uploader  *s3manager.Uploader
}

func (s *s3FS) Has(ctx context.Context, key string) (bool, error) {
	_, err := s.s3.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if rerr, ok := err.(awserr.RequestFailure); ok && rerr.StatusCode() == 404 {
			return false, nil
		}
		return false, status.ErrStorageAPI.WrapMessage(err, "head %q", key)
	}
	return true, nil
}

func (s *s3FS) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.s3.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if rerr, ok := err.(awserr.Error); ok && rerr.Code() == s3.ErrCodeNoSuchKey {
			return nil, status.ErrNotFound
		}
		return nil, status.ErrStorageAPI.WrapMessage(err, "get %q", key)
	}
	return obj.Body, nil
}

func (s *s3FS) Put(ctx context.Context, key string, rdr io.Reader, doesNotExist bool) error {
	if doesNotExist {
		has, err := s.Has(ctx, key)
		if err != nil {
			return err
		}
		if has {
			return status.ErrExists
		}
	}
	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   rdr,
	})
	if err != nil {
		return status.ErrStorageAPI.WrapMessage(err, "put %q", key)
	}
	return nil
}

func (s *s3FS) Delete(ctx context.Context, key string) error {
	_, err := s.s3.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return status.ErrStorageAPI.WrapMessage(err, "delete %q", key)
	}
	return nil
}

func (s *s3FS) Keys(ctx context.Context) ([]string, error) {
	res := make([]string, 0, PageSize)
	err := s.s3.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		MaxKeys: aws.Int64(PageSize),
	}, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, obj := range page.Contents {
			res = append(res, aws.StringValue(obj.Key))
		}
		return true
	})
	if err != nil {
		return nil, status.ErrStorageAPI.WrapMessage(err, "list keys")
	}
	return res, nil
}

func (s *s3FS) String() string {
	return fmt.Sprintf("s3@%s", s.bucket)
}
