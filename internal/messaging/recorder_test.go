package messaging

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"house-price-backend/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeTask struct {
	queue    string
	payload  []byte
	acked    bool
	nacked   bool
	rejected bool
}

func (t *fakeTask) Type() string {
	return t.queue
}

func (t *fakeTask) Payload() []byte {
	return t.payload
}

func (t *fakeTask) Ack() error {
	t.acked = true
	return nil
}

func (t *fakeTask) Nack() error {
	t.nacked = true
	return nil
}

func (t *fakeTask) Reject() error {
	t.rejected = true
	return nil
}

func setupRecorderDB(t *testing.T) (*gorm.DB, database.User) {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	user, err := database.CreateUser(context.Background(), db, "Ada", "Lovelace", "ada@example.com", "hash")
	require.NoError(t, err)
	return db, user
}

func recordTask(t *testing.T, record database.PredictionRecord) *fakeTask {
	t.Helper()
	payload, err := json.Marshal(record)
	require.NoError(t, err)
	return &fakeTask{queue: PredictionRecordQueue, payload: payload}
}

func TestPredictionRecorderProcessTask(t *testing.T) {
	db, user := setupRecorderDB(t)
	recorder := NewPredictionRecorder(db, NewInMemoryQueue())

	record := database.NewPredictionRecord(user.Id, map[string]any{"room_bed": 3.0}, 450000)
	task := recordTask(t, record)
	recorder.ProcessTask(task)
	assert.True(t, task.acked)

	// Redelivery of the same record is acknowledged without a second row.
	again := recordTask(t, record)
	recorder.ProcessTask(again)
	assert.True(t, again.acked)

	predictions, err := database.ListPredictions(context.Background(), db, user.Id, 0)
	require.NoError(t, err)
	require.Len(t, predictions, 1)
	assert.Equal(t, record.Id, predictions[0].Id)
	assert.Equal(t, 450000.0, predictions[0].PredictedPrice)
}

func TestPredictionRecorderRejectsBadTasks(t *testing.T) {
	db, _ := setupRecorderDB(t)
	recorder := NewPredictionRecorder(db, NewInMemoryQueue())

	malformed := &fakeTask{queue: PredictionRecordQueue, payload: []byte("{not json")}
	recorder.ProcessTask(malformed)
	assert.True(t, malformed.rejected)

	empty := &fakeTask{queue: PredictionRecordQueue, payload: []byte("{}")}
	recorder.ProcessTask(empty)
	assert.True(t, empty.rejected)

	unknown := &fakeTask{queue: "inference_queue", payload: []byte("{}")}
	recorder.ProcessTask(unknown)
	assert.True(t, unknown.rejected)
}

func TestPredictionRecorderNacksOnDatabaseFailure(t *testing.T) {
	db, user := setupRecorderDB(t)
	recorder := NewPredictionRecorder(db, NewInMemoryQueue())

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	task := recordTask(t, database.NewPredictionRecord(user.Id, map[string]any{}, 1))
	recorder.ProcessTask(task)
	assert.True(t, task.nacked)
	assert.False(t, task.acked)
}

func TestQueueSinkToRecorder(t *testing.T) {
	db, user := setupRecorderDB(t)
	queue := NewInMemoryQueue()
	sink := NewQueueSink(queue)
	recorder := NewPredictionRecorder(db, queue)

	done := make(chan struct{})
	go func() {
		recorder.Start()
		close(done)
	}()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, sink.RecordPrediction(ctx, database.NewPredictionRecord(user.Id, map[string]any{"i": i}, float64(i))))
	}

	assert.Eventually(t, func() bool {
		predictions, err := database.ListPredictions(ctx, db, user.Id, 0)
		return err == nil && len(predictions) == 3
	}, 5*time.Second, 20*time.Millisecond)

	recorder.Stop()
	<-done

	assert.Error(t, sink.RecordPrediction(ctx, database.NewPredictionRecord(user.Id, nil, 0)))
}

func TestInMemoryQueueNackRedelivers(t *testing.T) {
	queue := NewInMemoryQueue()
	require.NoError(t, queue.publishTaskInternal(PredictionRecordQueue, map[string]int{"a": 1}))

	task := <-queue.Tasks()
	require.NoError(t, task.Nack())

	redelivered := <-queue.Tasks()
	assert.Equal(t, task.Payload(), redelivered.Payload())

	// A second failure drops the task instead of requeueing it.
	require.NoError(t, redelivered.Nack())
	select {
	case <-queue.Tasks():
		t.Fatal("task requeued after failed redelivery")
	default:
	}

	queue.Close()
	queue.Close()
	assert.Error(t, task.Nack())
}
