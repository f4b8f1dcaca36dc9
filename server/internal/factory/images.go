package factory

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/bitelog/bitelog/server/internal/config"
	"github.com/bitelog/bitelog/server/internal/services"
)

// NewImageSink returns an S3 uploader when a bucket is configured and the
// inline pass-through otherwise. Credentials come from the default AWS chain.
func NewImageSink(ctx context.Context, cfg *config.Config, log zerolog.Logger) (services.ImageSink, error) {
	if cfg.S3Bucket == "" {
		log.Info().Msg("image offload disabled; images stored inline")
		return services.InlineImages{}, nil
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.S3Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.S3Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &services.S3Images{
		Client:     s3.NewFromConfig(awsCfg),
		Bucket:     cfg.S3Bucket,
		KeyPrefix:  cfg.S3KeyPrefix,
		PublicBase: publicBase(cfg, awsCfg.Region),
	}, nil
}

func publicBase(cfg *config.Config, region string) string {
	if cfg.S3PublicBaseURL != "" {
		return cfg.S3PublicBaseURL
	}
	if region == "" {
		return fmt.Sprintf("https://%s.s3.amazonaws.com", cfg.S3Bucket)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, region)
}
