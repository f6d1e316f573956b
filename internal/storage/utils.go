package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func dirPrefix(prefix string) string {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix
}

func prepareDestination(dest string, overwrite bool) error {
	if _, err := os.Stat(dest); err == nil {
		if !overwrite {
			return fmt.Errorf("destination %s already exists and overwrite is false", dest)
		}
		if err := os.RemoveAll(dest); err != nil {
			return fmt.Errorf("failed to remove existing destination: %w", err)
		}
	}

	if err := os.MkdirAll(dest, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dest, err)
	}
	return nil
}

// LocalFiles returns the files under src keyed by their slash separated path
// relative to src.
func LocalFiles(src string) (map[string]string, error) {
	files := make(map[string]string)
	err := filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("failed to walk directory %s: %w", src, err)
		}
		if info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = path
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func walkUpload(ctx context.Context, store ObjectStore, bucket, prefix, src string) error {
	prefix = dirPrefix(prefix)

	files, err := LocalFiles(src)
	if err != nil {
		return fmt.Errorf("error uploading directory %s to %s/%s: %w", src, bucket, prefix, err)
	}

	for key, path := range files {
		if err := uploadFile(ctx, store, bucket, prefix+key, path); err != nil {
			return fmt.Errorf("error uploading directory %s to %s/%s: %w", src, bucket, prefix, err)
		}
	}

	return nil
}

func uploadFile(ctx context.Context, store ObjectStore, bucket, key, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return store.PutObject(ctx, bucket, key, file)
}
