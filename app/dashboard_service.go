package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"sedes/domain/core"
	"sedes/domain/dataset"
	"sedes/internal"
	"sedes/internal/errors"
	ingest "sedes/internal/dataset"
	"sedes/ports"
)

const loadKey = "load"

// DashboardService owns the current RecordSet. Loads replace it wholesale;
// readers always see either the previous or the new set, never a mix.
type DashboardService struct {
	source  ports.TableSource
	builder *ingest.Builder
	history ports.LoadRunRepository
	labels  []string
	logger  *internal.Logger

	current atomic.Pointer[dataset.RecordSet]
	loads   singleflight.Group

	sessionsMu sync.Mutex
	sessions   map[core.SessionID]*Session
}

// NewDashboardService creates the service. history may be nil.
func NewDashboardService(
	source ports.TableSource,
	builder *ingest.Builder,
	history ports.LoadRunRepository,
	labels []string,
	logger *internal.Logger,
) *DashboardService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &DashboardService{
		source:   source,
		builder:  builder,
		history:  history,
		labels:   labels,
		logger:   logger.Named("Dashboard"),
		sessions: make(map[core.SessionID]*Session),
	}
}

// Load fetches, parses and builds a new RecordSet, then swaps it in.
// Concurrent callers share the in-flight load. On failure the previous
// RecordSet stays current.
func (s *DashboardService) Load(ctx context.Context) (*dataset.RecordSet, error) {
	v, err, shared := s.loads.Do(loadKey, func() (interface{}, error) {
		return s.load(ctx)
	})
	if shared {
		s.logger.Debug("joined in-flight load")
	}
	if err != nil {
		return nil, err
	}
	return v.(*dataset.RecordSet), nil
}

func (s *DashboardService) load(ctx context.Context) (*dataset.RecordSet, error) {
	run := &dataset.LoadRun{
		ID:        core.NewLoadRunID(),
		Source:    s.source.Describe(),
		StartedAt: time.Now(),
	}
	s.logger.Info("loading %s", run.Source)

	table, err := s.source.Fetch(ctx)
	if err != nil {
		if !errors.IsAppError(err) {
			err = errors.Transport(run.Source, err)
		}
		s.finish(ctx, run, err)
		return nil, err
	}
	run.RowCount = len(table)

	rs, err := s.builder.Build(table)
	if err != nil {
		s.finish(ctx, run, err)
		return nil, err
	}
	rs.Source = run.Source
	run.RecordCount = rs.Len()
	run.HeaderCount = len(rs.Headers)
	run.Fingerprint = rs.Fingerprint.String()

	if prev := s.current.Swap(rs); prev != nil && prev.Fingerprint == rs.Fingerprint {
		s.logger.Debug("reloaded unchanged content %s", rs.Fingerprint.Short())
	}
	s.finish(ctx, run, nil)
	return rs, nil
}

func (s *DashboardService) finish(ctx context.Context, run *dataset.LoadRun, err error) {
	run.DurationMS = time.Since(run.StartedAt).Milliseconds()
	if err != nil {
		run.Status = dataset.LoadFailed
		run.ErrorCode = errors.GetCode(err)
		run.ErrorMessage = err.Error()
		s.logger.Error("load %s failed after %dms: %v", run.ID, run.DurationMS, err)
	} else {
		run.Status = dataset.LoadSucceeded
		s.logger.Info("load %s: %d records in %dms", run.ID, run.RecordCount, run.DurationMS)
	}

	if s.history == nil {
		return
	}
	// The load outcome stands even if the history write fails.
	if herr := s.history.Record(context.WithoutCancel(ctx), run); herr != nil {
		s.logger.Warn("failed to record load %s: %v", run.ID, herr)
	}
}

// RecordSet returns the current RecordSet or ErrNotLoaded.
func (s *DashboardService) RecordSet() (*dataset.RecordSet, error) {
	rs := s.current.Load()
	if rs == nil {
		return nil, errors.NotLoaded()
	}
	return rs, nil
}

// Loaded reports whether a RecordSet is available
func (s *DashboardService) Loaded() bool {
	return s.current.Load() != nil
}

// Municipalities returns the municipality list of the current RecordSet.
func (s *DashboardService) Municipalities() ([]string, error) {
	rs, err := s.RecordSet()
	if err != nil {
		return nil, err
	}
	return rs.Municipalities(), nil
}

// Categories returns the configured category labels.
func (s *DashboardService) Categories() []string {
	out := make([]string, len(s.labels))
	copy(out, s.labels)
	return out
}

// LoadHistory returns the most recent load attempts, newest first.
func (s *DashboardService) LoadHistory(ctx context.Context, limit int) ([]*dataset.LoadRun, error) {
	if s.history == nil {
		return []*dataset.LoadRun{}, nil
	}
	runs, err := s.history.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list load history: %w", err)
	}
	return runs, nil
}

// NewSession creates and registers a session with a fresh id.
func (s *DashboardService) NewSession() *Session {
	sess := newSession(core.NewSessionID(), s)
	s.sessionsMu.Lock()
	s.sessions[sess.ID()] = sess
	s.sessionsMu.Unlock()
	return sess
}

// Session returns the session for id, creating it when unknown.
func (s *DashboardService) Session(id core.SessionID) *Session {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		return sess
	}
	sess := newSession(id, s)
	s.sessions[id] = sess
	return sess
}

// SessionCount returns the number of live sessions
func (s *DashboardService) SessionCount() int {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	return len(s.sessions)
}

// PruneSessions drops sessions idle for longer than maxIdle and returns how
// many were removed.
func (s *DashboardService) PruneSessions(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if sess.LastSeen().Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}
