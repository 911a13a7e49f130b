// Package cloudflare provides a client for interacting with the Cloudflare API.
package cloudflare

import (
	"context"
	"fmt"

	"bitwise74/readstack/aws"
	"bitwise74/readstack/config"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type R2Client struct {
	C      *s3.Client
	Bucket *string
}

func Endpoint(accountID string) string {
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID)
}

// NewR2 builds an S3 API client pointed at a Cloudflare R2 bucket
func NewR2(ctx context.Context, c config.AssetsConfig) (*R2Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.AccessKeyID,
			c.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, err
	}

	bucket := awssdk.String(c.Bucket)

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = awssdk.String(Endpoint(c.AccountID))
		o.Region = "auto"
	})

	if err := aws.CheckBucket(ctx, client, bucket); err != nil {
		return nil, err
	}

	return &R2Client{
		C:      client,
		Bucket: bucket,
	}, nil
}
