package storage

import (
	"context"
	"fmt"
	"io"
)

type Object struct {
	Name string
	Size int64
}

type ObjectStore interface {
	CreateBucket(ctx context.Context, bucket string) error

	PutObject(ctx context.Context, bucket, key string, data io.Reader) error

	ListObjects(ctx context.Context, bucket, prefix string) ([]Object, error)

	DownloadDir(ctx context.Context, bucket, prefix, dest string, overwrite bool) error

	UploadDir(ctx context.Context, bucket, prefix, src string) error
}

const (
	LocalStore = "local"
	S3Store    = "s3"
)

type Config struct {
	Type            string `env:"STORAGE_TYPE" envDefault:"local"`
	LocalDir        string `env:"STORAGE_DIR" envDefault:"./storage"`
	Endpoint        string `env:"S3_ENDPOINT"`
	Region          string `env:"S3_REGION" envDefault:"us-east-1"`
	AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
}

func NewObjectStore(cfg Config) (ObjectStore, error) {
	switch cfg.Type {
	case LocalStore:
		store, err := NewLocalObjectStore(cfg.LocalDir)
		if err != nil {
			return nil, err
		}
		return store, nil
	case S3Store:
		store, err := NewS3ObjectStore(S3ClientConfig{
			Endpoint:        cfg.Endpoint,
			Region:          cfg.Region,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage type '%s'", cfg.Type)
	}
}
