package audit

import (
	"context"
	"testing"
	"time"

	"github.com/nanakusa/frontier/model"
	"github.com/nanakusa/frontier/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return New(db, zap.NewNop()), db
}

func TestStopFlushesQueuedEntry(t *testing.T) {
	svc, db := newService(t)

	trainerID := int64(1)
	accountID := int64(2)
	runID := int64(7)
	svc.Log(Entry{
		TraceID:     "trace-123",
		TrainerID:   &trainerID,
		AccountID:   &accountID,
		TrainerName: "Alice",
		Action:      "auth.login",
		Request:     map[string]string{"user": "alice"},
		Response:    map[string]bool{"ok": true},
		IP:          "127.0.0.1",
		RunID:       &runID,
		DurationMs:  42,
	})
	svc.Stop(context.Background())

	var rows []model.AuditLog
	db.Find(&rows)
	require.Len(t, rows, 1)
	assert.Equal(t, "trace-123", rows[0].TraceID)
	assert.Equal(t, "Alice", rows[0].TrainerName)
	assert.Equal(t, "auth.login", rows[0].Action)
	assert.Equal(t, "127.0.0.1", rows[0].IP)
	assert.Equal(t, 42, rows[0].DurationMs)
	require.NotNil(t, rows[0].RunID)
	assert.Equal(t, int64(7), *rows[0].RunID)
}

func TestEveryEntryLands(t *testing.T) {
	svc, db := newService(t)

	for i := 0; i < 10; i++ {
		svc.Log(Entry{Action: "run.turn", IP: "10.0.0.1"})
	}
	svc.Stop(context.Background())

	var count int64
	db.Model(&model.AuditLog{}).Count(&count)
	assert.Equal(t, int64(10), count)
}

func TestFullBatchFlushesEarly(t *testing.T) {
	svc, db := newService(t)

	// batchMax entries flush inside the writer without waiting for the
	// ticker; Stop then guarantees the write has committed.
	for i := 0; i < batchMax; i++ {
		svc.Log(Entry{Action: "run.turn"})
	}
	svc.Stop(context.Background())

	var count int64
	db.Model(&model.AuditLog{}).Count(&count)
	assert.GreaterOrEqual(t, count, int64(batchMax))
}

func TestTickerFlushes(t *testing.T) {
	svc, db := newService(t)
	defer svc.Stop(context.Background())

	svc.Log(Entry{Action: "auth.refresh"})
	time.Sleep(flushEvery + 500*time.Millisecond)

	var count int64
	db.Model(&model.AuditLog{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestStopTwice(t *testing.T) {
	svc, _ := newService(t)
	svc.Stop(context.Background())
	svc.Stop(context.Background())
}

func TestOptionalIDsStayNil(t *testing.T) {
	svc, db := newService(t)

	svc.Log(Entry{Action: "admin.stats"})
	svc.Stop(context.Background())

	var rows []model.AuditLog
	db.Find(&rows)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].TrainerID)
	assert.Nil(t, rows[0].AccountID)
}

func TestFloodDoesNotBlockCaller(t *testing.T) {
	svc, _ := newService(t)

	// Exceed the queue depth; overflow entries drop instead of stalling.
	for i := 0; i < queueDepth+50; i++ {
		svc.Log(Entry{Action: "flood"})
	}
	svc.Stop(context.Background())
}
