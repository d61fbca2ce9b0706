package services

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const photoURLExpiry = 5 * time.Minute

// PhotoService hands out presigned S3 URLs for profile photos so clients
// upload and read directly without the backend proxying bytes.
type PhotoService struct {
	Presigner *s3.PresignClient
	Bucket    string
}

// InitializePhotoService builds a PhotoService from the ambient AWS config
// and the S3_BUCKET_NAME environment variable.
func InitializePhotoService() (*PhotoService, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO(), config.WithRegion(os.Getenv("AWS_REGION")))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &PhotoService{
		Presigner: s3.NewPresignClient(s3.NewFromConfig(cfg)),
		Bucket:    os.Getenv("S3_BUCKET_NAME"),
	}, nil
}

// GenerateUploadURL returns a presigned PUT URL and the object key the
// photo will live under.
func (ps *PhotoService) GenerateUploadURL(ctx context.Context, userID, fileName, contentType string) (string, string, error) {
	key := "profile-photos/" + userID + "/" + time.Now().UTC().Format("20060102150405") + "-" + fileName
	params := &s3.PutObjectInput{
		Bucket:      aws.String(ps.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}
	presigned, err := ps.Presigner.PresignPutObject(ctx, params, s3.WithPresignExpires(photoURLExpiry))
	if err != nil {
		return "", "", fmt.Errorf("failed to presign upload: %w", err)
	}
	return presigned.URL, key, nil
}

// GenerateReadURL returns a presigned GET URL for a stored photo key.
func (ps *PhotoService) GenerateReadURL(ctx context.Context, key string) (string, error) {
	params := &s3.GetObjectInput{
		Bucket: aws.String(ps.Bucket),
		Key:    aws.String(key),
	}
	presigned, err := ps.Presigner.PresignGetObject(ctx, params, s3.WithPresignExpires(photoURLExpiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign read: %w", err)
	}
	return presigned.URL, nil
}
