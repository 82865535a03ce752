package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// S3Backend fetches objects from AWS S3 or B2-style S3 endpoints.
type S3Backend struct {
	api    *s3.S3
	bucket string
}

func NewS3Backend(endpoint, region, keyID, appKey, bucket string) (*S3Backend, error) {
	s3Config := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(keyID, appKey, ""),
		Region:           aws.String(region),
		S3ForcePathStyle: aws.Bool(true),
	}
	if endpoint != "" {
		s3Config.Endpoint = aws.String(endpoint)
	}
	sess, err := session.NewSession(s3Config)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 session: %w", err)
	}
	return &S3Backend{api: s3.New(sess), bucket: bucket}, nil
}

func (s *S3Backend) Name() string { return "s3" }

func (s *S3Backend) Fetch(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	out, err := s.api.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return nil, s.translate(objectKey, err)
	}
	return out.Body, nil
}

func (s *S3Backend) Stat(ctx context.Context, objectKey string) (*ObjectInfo, error) {
	out, err := s.api.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return nil, s.translate(objectKey, err)
	}
	return &ObjectInfo{
		Key:          objectKey,
		Size:         aws.Int64Value(out.ContentLength),
		ContentType:  aws.StringValue(out.ContentType),
		LastModified: aws.TimeValue(out.LastModified),
	}, nil
}

func (s *S3Backend) translate(objectKey string, err error) error {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return fmt.Errorf("s3 %s/%s: %w", s.bucket, objectKey, ErrObjectNotFound)
		}
	}
	return fmt.Errorf("s3 %s/%s: %w", s.bucket, objectKey, err)
}
