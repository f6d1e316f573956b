package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"sort"

	"house-price-backend/cmd"
	"house-price-backend/internal/core"
	"house-price-backend/internal/storage"

	"github.com/caarlos0/env/v11"
	"github.com/schollz/progressbar/v3"
)

// Uploads a local artifact directory (manifest.yaml, model, dataset) to the
// object store the API server fetches its artifacts from.
func main() {
	dir := flag.String("dir", "", "local artifact directory containing manifest.yaml")
	bucket := flag.String("bucket", "models", "destination bucket")
	prefix := flag.String("prefix", "house-price", "destination prefix")

	cmd.LoadEnvFile()

	if *dir == "" {
		log.Fatalf("-dir must be specified")
	}

	var storageCfg storage.Config
	if err := env.Parse(&storageCfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	manifest, err := core.LoadManifest(*dir)
	if err != nil {
		log.Fatalf("invalid artifact directory: %v", err)
	}

	store, err := storage.NewObjectStore(storageCfg)
	if err != nil {
		log.Fatalf("error creating object store: %v", err)
	}

	ctx := context.Background()
	if err := store.CreateBucket(ctx, *bucket); err != nil {
		log.Fatalf("error creating bucket %s: %v", *bucket, err)
	}

	files, err := storage.LocalFiles(*dir)
	if err != nil {
		log.Fatalf("error listing artifacts: %v", err)
	}

	keys := make([]string, 0, len(files))
	for key := range files {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := upload(ctx, store, *bucket, *prefix+"/"+key, files[key]); err != nil {
			log.Fatalf("error uploading %s: %v", key, err)
		}
	}

	slog.Info("uploaded model artifacts", "bucket", *bucket, "prefix", *prefix, "files", len(keys), "model_type", manifest.ModelType)
}

func upload(ctx context.Context, store storage.ObjectStore, bucket, key, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	bar := progressbar.DefaultBytes(info.Size(), fmt.Sprintf("uploading %s", key))
	reader := progressbar.NewReader(file, bar)

	if err := store.PutObject(ctx, bucket, key, &reader); err != nil {
		return err
	}
	return bar.Finish()
}
