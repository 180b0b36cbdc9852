package scheduler

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TaskFn is a scheduled callback.
type TaskFn func()

// Scheduler runs named repeating maintenance jobs. Names are unique;
// registering a name again replaces the previous job.
type Scheduler struct {
	mu     sync.Mutex
	jobs   map[string]*job
	log    *zap.Logger
	closed bool
}

type job struct {
	cancel func()
}

// New creates an empty Scheduler.
func New(log *zap.Logger) *Scheduler {
	return &Scheduler{jobs: make(map[string]*job), log: log}
}

// AddTicker runs fn every interval until the job is removed or the
// scheduler stops.
func (s *Scheduler) AddTicker(name string, interval time.Duration, fn TaskFn) {
	quit := make(chan struct{})
	tk := time.NewTicker(interval)
	go func() {
		defer tk.Stop()
		for {
			select {
			case <-tk.C:
				s.invoke(name, fn)
			case <-quit:
				return
			}
		}
	}()

	var once sync.Once
	s.install(name, &job{cancel: func() { once.Do(func() { close(quit) }) }})
	s.log.Info("job scheduled", zap.String("name", name), zap.Duration("interval", interval))
}

// invoke runs fn, turning a panic into an error log so one bad tick
// does not kill the job.
func (s *Scheduler) invoke(name string, fn TaskFn) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("scheduled job panicked", zap.String("name", name), zap.Any("panic", r))
		}
	}()
	fn()
}

func (s *Scheduler) install(name string, j *job) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		j.cancel()
		return
	}
	old := s.jobs[name]
	s.jobs[name] = j
	s.mu.Unlock()
	if old != nil {
		old.cancel()
	}
}

// Remove cancels the named job. Unknown names are ignored.
func (s *Scheduler) Remove(name string) {
	s.mu.Lock()
	j := s.jobs[name]
	delete(s.jobs, name)
	s.mu.Unlock()
	if j != nil {
		j.cancel()
	}
}

// Stop cancels every job. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	all := make([]*job, 0, len(s.jobs))
	for _, j := range s.jobs {
		all = append(all, j)
	}
	s.jobs = make(map[string]*job)
	s.mu.Unlock()

	for _, j := range all {
		j.cancel()
	}
}

// ListTickers returns the registered job names, sorted.
func (s *Scheduler) ListTickers() []string {
	s.mu.Lock()
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	s.mu.Unlock()
	sort.Strings(names)
	return names
}
