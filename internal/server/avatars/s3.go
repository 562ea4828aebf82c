package avatars

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/gophaccounts/internal/server/models"
	"github.com/google/uuid"

	sc "github.com/dmitrijs2005/gophaccounts/internal/server/config"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store uploads avatars to an S3-compatible bucket (MinIO in development)
// and removes the staged upload afterwards.
type S3Store struct {
	client   objectPutter
	bucket   string
	endpoint string
}

// NewS3Store builds a path-style S3 client from static credentials.
func NewS3Store(ctx context.Context, c *sc.Config) (*S3Store, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(c.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.S3RootUser,
			c.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(c.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return &S3Store{client: client, bucket: c.S3Bucket, endpoint: c.S3BaseEndpoint}, nil
}

// ObjectKey is avatars/<userID>/<uuid><ext>.
func ObjectKey(userID, originalName string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	return fmt.Sprintf("avatars/%s/%s%s", userID, uuid.NewString(), ext)
}

func (s *S3Store) Save(ctx context.Context, userID string, file *models.FileRef) (string, error) {
	f, err := os.Open(file.Path)
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	name := file.OriginalName
	if name == "" {
		name = file.Path
	}
	key := ObjectKey(userID, name)

	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   f,
	}
	if file.ContentType != "" {
		in.ContentType = aws.String(file.ContentType)
	}

	if _, err := s.client.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}

	_ = f.Close()
	_ = os.Remove(file.Path)

	return s.objectURL(key), nil
}

func (s *S3Store) objectURL(key string) string {
	return strings.TrimRight(s.endpoint, "/") + "/" + s.bucket + "/" + key
}
