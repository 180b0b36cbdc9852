package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/nanakusa/frontier/model"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	queueDepth = 1024
	batchMax   = 100
	flushEvery = 2 * time.Second
)

// Entry is one auditable action. Request and Response are marshalled to
// JSON as-is.
type Entry struct {
	TraceID     string
	TrainerID   *int64
	AccountID   *int64
	TrainerName string
	Action      string
	Request     interface{}
	Response    interface{}
	Error       string
	IP          string
	RunID       *int64
	DurationMs  int
}

// Service writes audit rows in the background so handlers never wait on
// the audit table.
type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	queue    chan *model.AuditLog
	quit     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a Service and starts its writer goroutine.
func New(db *gorm.DB, log *zap.Logger) *Service {
	svc := &Service{
		db:    db,
		log:   log,
		queue: make(chan *model.AuditLog, queueDepth),
		quit:  make(chan struct{}),
	}
	svc.wg.Add(1)
	go svc.pump()
	return svc
}

// Log queues one entry for the background writer. When the queue is
// full the entry is dropped rather than stalling the request.
func (svc *Service) Log(e Entry) {
	req, _ := json.Marshal(e.Request)
	resp, _ := json.Marshal(e.Response)
	row := &model.AuditLog{
		TraceID:     e.TraceID,
		TrainerID:   e.TrainerID,
		AccountID:   e.AccountID,
		TrainerName: e.TrainerName,
		Action:      e.Action,
		Request:     datatypes.JSON(req),
		Response:    datatypes.JSON(resp),
		Error:       e.Error,
		IP:          e.IP,
		RunID:       e.RunID,
		DurationMs:  e.DurationMs,
	}
	select {
	case svc.queue <- row:
	default:
		svc.log.Warn("audit queue full, dropping entry", zap.String("action", e.Action))
	}
}

// Stop drains the queue and blocks until every queued row is written.
// Safe to call more than once.
func (svc *Service) Stop(_ context.Context) {
	svc.stopOnce.Do(func() { close(svc.quit) })
	svc.wg.Wait()
}

func (svc *Service) pump() {
	defer svc.wg.Done()
	tick := time.NewTicker(flushEvery)
	defer tick.Stop()

	var pending []*model.AuditLog
	for {
		select {
		case row := <-svc.queue:
			pending = append(pending, row)
			if len(pending) >= batchMax {
				pending = svc.write(pending)
			}
		case <-tick.C:
			pending = svc.write(pending)
		case <-svc.quit:
			for {
				select {
				case row := <-svc.queue:
					pending = append(pending, row)
				default:
					svc.write(pending)
					return
				}
			}
		}
	}
}

// write inserts rows in one batch and hands back an emptied slice for
// reuse.
func (svc *Service) write(rows []*model.AuditLog) []*model.AuditLog {
	if len(rows) == 0 {
		return rows
	}
	if err := svc.db.Create(&rows).Error; err != nil {
		svc.log.Error("audit batch write failed", zap.Int("rows", len(rows)), zap.Error(err))
	}
	return rows[:0]
}
