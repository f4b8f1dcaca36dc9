package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ImageSink decides what ends up in food_entries.image_url.
type ImageSink interface {
	Put(ctx context.Context, userID, imageURL string) (string, error)
}

// InlineImages stores whatever the client sent, data URLs included.
type InlineImages struct{}

func (InlineImages) Put(_ context.Context, _ string, imageURL string) (string, error) {
	return imageURL, nil
}

// S3PutObjectAPI is the subset of *s3.Client used by S3Images.
type S3PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Images uploads data-URL images to a bucket and stores the public URL.
// Non-data references (already remote) pass through untouched.
type S3Images struct {
	Client     S3PutObjectAPI
	Bucket     string
	KeyPrefix  string
	PublicBase string
}

func (s *S3Images) Put(ctx context.Context, userID, imageURL string) (string, error) {
	if !strings.HasPrefix(imageURL, "data:") {
		return imageURL, nil
	}
	contentType, data, err := decodeDataURL(imageURL)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s/%s/%d-%s%s",
		strings.Trim(s.KeyPrefix, "/"),
		userID,
		time.Now().UnixMilli(),
		uuid.New().String(),
		extensionFor(contentType),
	)
	if _, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	}); err != nil {
		return "", fmt.Errorf("s3 put %s: %w", key, err)
	}
	return strings.TrimRight(s.PublicBase, "/") + "/" + key, nil
}

// decodeDataURL splits "data:<mime>;base64,<payload>".
func decodeDataURL(v string) (string, []byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(v, "data:"), ",")
	if !ok {
		return "", nil, fmt.Errorf("invalid data url")
	}
	contentType, enc, _ := strings.Cut(meta, ";")
	if enc != "base64" {
		return "", nil, fmt.Errorf("data url must be base64 encoded")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode data url: %w", err)
	}
	return contentType, data, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ""
	}
}
