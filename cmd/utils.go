package cmd

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"house-price-backend/internal/api"
	"house-price-backend/internal/config"
	"house-price-backend/internal/core"
	"house-price-backend/internal/database"
	"house-price-backend/internal/messaging"
	"house-price-backend/internal/storage"

	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func LoadEnvFile() {
	var configPath string

	flag.StringVar(&configPath, "env", "", "path to load env from")
	flag.Parse()

	if configPath == "" {
		log.Printf("no env file specified, using os.Environ only")
		return
	}

	log.Printf("loading env from file %s", configPath)
	err := godotenv.Load(configPath)
	if err != nil {
		log.Fatalf("error loading .env file '%s': %v", configPath, err)
	}
}

// FetchArtifacts downloads the model artifacts into cfg.Dir. Without a bucket
// the directory is expected to be populated already.
func FetchArtifacts(ctx context.Context, storageCfg storage.Config, cfg config.ArtifactConfig) error {
	if cfg.Bucket == "" {
		if _, err := os.Stat(cfg.Dir); err != nil {
			return fmt.Errorf("artifact dir %s is not available: %w", cfg.Dir, err)
		}
		slog.Info("using local model artifacts", "dir", cfg.Dir)
		return nil
	}

	store, err := storage.NewObjectStore(storageCfg)
	if err != nil {
		return fmt.Errorf("error creating object store: %w", err)
	}

	objs, err := store.ListObjects(ctx, cfg.Bucket, strings.TrimSuffix(cfg.Prefix, "/")+"/")
	if err != nil {
		return fmt.Errorf("error listing model artifacts: %w", err)
	}
	if len(objs) == 0 {
		return fmt.Errorf("no model artifacts found under %s/%s", cfg.Bucket, cfg.Prefix)
	}

	if err := store.DownloadDir(ctx, cfg.Bucket, cfg.Prefix, cfg.Dir, true); err != nil {
		return fmt.Errorf("error downloading model artifacts: %w", err)
	}

	slog.Info("downloaded model artifacts", "bucket", cfg.Bucket, "prefix", cfg.Prefix, "dir", cfg.Dir, "objects", len(objs))
	return nil
}

// LoadPipeline initializes the model runtime if needed and builds the
// prediction pipeline from the artifact directory.
func LoadPipeline(cfg config.ArtifactConfig) (*core.Pipeline, error) {
	if cfg.OnnxRuntimeDylib != "" {
		if err := core.InitOnnxRuntime(cfg.OnnxRuntimeDylib); err != nil {
			return nil, err
		}
	}

	return core.LoadPipeline(cfg.Dir, core.NewModelLoaders())
}

// NewPredictionSink returns the sink for the configured persist mode and a
// function releasing its resources.
func NewPredictionSink(cfg config.APIConfig, db *gorm.DB) (api.PredictionSink, func(), error) {
	if cfg.PersistMode == config.PersistSync {
		return database.NewPredictionStore(db), func() {}, nil
	}

	if cfg.RabbitMQURL != "" {
		publisher, err := messaging.NewRabbitMQPublisher(cfg.RabbitMQURL)
		if err != nil {
			return nil, nil, fmt.Errorf("error connecting to rabbitmq: %w", err)
		}
		slog.Info("publishing prediction records to rabbitmq", "queue", messaging.PredictionRecordQueue)
		return messaging.NewQueueSink(publisher), publisher.Close, nil
	}

	queue := messaging.NewInMemoryQueue()
	recorder := messaging.NewPredictionRecorder(db, queue)
	go recorder.Start()

	slog.Info("recording predictions through in-process queue")
	return messaging.NewQueueSink(queue), recorder.Stop, nil
}
