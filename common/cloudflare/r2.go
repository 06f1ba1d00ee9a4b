package cloudflare

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	commonConfig "github.com/ensdomains/ens-avatar-fallback/common/config"
	"github.com/ensdomains/ens-avatar-fallback/common/logger"
)

// AvatarObject is one stored avatar as returned by the bucket.
type AvatarObject struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
}

var (
	clientOnce sync.Once
	s3Client   *s3.Client
	clientErr  error
)

func getClient(ctx context.Context) (*s3.Client, error) {
	clientOnce.Do(func() {
		accessKey := commonConfig.AvatarAccessKey
		secretKey := commonConfig.AvatarSecretKey
		endpoint := commonConfig.AvatarEndpoint

		if accessKey == "" || secretKey == "" || commonConfig.AvatarBucketName == "" || endpoint == "" {
			clientErr = fmt.Errorf("avatar bucket configuration is incomplete")
			return
		}

		cfg, err := config.LoadDefaultConfig(ctx,
			config.WithRegion(commonConfig.AvatarRegion),
			config.WithCredentialsProvider(aws.NewCredentialsCache(aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
				return aws.Credentials{
					AccessKeyID:     accessKey,
					SecretAccessKey: secretKey,
				}, nil
			}))),
			config.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(
				func(service, region string, options ...interface{}) (aws.Endpoint, error) {
					return aws.Endpoint{URL: endpoint}, nil
				}),
			),
		)
		if err != nil {
			clientErr = fmt.Errorf("failed to create AWS config: %v", err)
			return
		}

		// Path-Style avoids virtual-hosted bucket subdomain TLS issues on R2.
		s3Client = s3.NewFromConfig(cfg, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	})
	return s3Client, clientErr
}

// GetAvatar fetches the object stored under key. The second return value is
// false when the bucket has no object for that key.
func GetAvatar(ctx context.Context, key string) (*AvatarObject, bool, error) {
	client, err := getClient(ctx)
	if err != nil {
		return nil, false, err
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(commonConfig.AvatarBucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get object from bucket: %v", err)
	}

	contentType := aws.ToString(out.ContentType)
	return &AvatarObject{
		Body:        out.Body,
		Size:        aws.ToInt64(out.ContentLength),
		ContentType: contentType,
	}, true, nil
}

// PutAvatar stores data under key. Writes are last-write-wins; a concurrent
// writer for the same key simply overwrites with identical bytes.
func PutAvatar(ctx context.Context, key string, data []byte, contentType string) error {
	client, err := getClient(ctx)
	if err != nil {
		return err
	}

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(commonConfig.AvatarBucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload avatar: %v", err)
	}

	logger.SysLog(fmt.Sprintf("avatar stored: %s (size: %d bytes)", key, len(data)))
	return nil
}
