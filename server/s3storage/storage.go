package s3storage

import (
	"context"
	"fmt"
	"os"

	"github.com/Daskott/agenda/shared"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Storage uploads objects to S3 or any S3 compatible endpoint (e.g. MinIO)
type S3Storage struct {
	client putObjectAPI
}

func NewS3Storage(ctx context.Context, awsConfig shared.AWSConfig) (*S3Storage, error) {
	optFns := []func(*config.LoadOptions) error{config.WithRegion(awsConfig.Region)}
	if awsConfig.AccessKeyID != "" {
		optFns = append(optFns, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(awsConfig.AccessKeyID, awsConfig.SecretAccessKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("NewS3Storage: %v", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if awsConfig.Endpoint != "" {
			o.BaseEndpoint = aws.String(awsConfig.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Storage{client: client}, nil
}

// Upload copies the file at 'filePath' to 'bucket' as 'object'.
func (s *S3Storage) Upload(ctx context.Context, bucket, object, filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("os.Open: %v", err)
	}
	defer f.Close()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(object),
		Body:        f,
		ContentType: aws.String("application/octet-stream"),
	})
	if err != nil {
		return fmt.Errorf("PutObject(%q): %v", object, err)
	}

	return nil
}
