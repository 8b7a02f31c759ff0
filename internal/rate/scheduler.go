package rate

import (
	"context"
	"fxcache/internal/domain"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const defaultRefreshInterval = time.Hour

type refresher interface {
	RefreshCurrent(ctx context.Context) (domain.SyncResult, bool, error)
}

// Scheduler periodically refreshes the rates of whatever base the table is built for.
type Scheduler struct {
	refresher       refresher
	refreshInterval time.Duration
	// -----
	mu    sync.Mutex
	sched gocron.Scheduler
}

func (s *Scheduler) Start(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return err
	}

	job := func(jobCtx context.Context) {
		execID := uuid.NewString()
		if refreshErr := RefreshCurrentBase(jobCtx, execID, s.refresher); refreshErr != nil {
			logrus.Errorf("Refresh rates job %s failed: %v", execID, refreshErr)
		}
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(s.refreshInterval),
		gocron.NewTask(job),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}

	scheduler.Start()
	s.mu.Lock()
	s.sched = scheduler
	s.mu.Unlock()

	// Stop scheduler when the provided context is canceled.
	go func() {
		<-ctx.Done()
		if sdErr := s.Shutdown(); sdErr != nil {
			logrus.Errorf("Scheduler shutdown error: %v", sdErr)
		}
	}()
	return nil
}

func (s *Scheduler) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sched == nil {
		return nil
	}
	err := s.sched.Shutdown()
	s.sched = nil
	return err
}

func (s *Scheduler) running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sched != nil
}

// RefreshCurrentBase refreshes the table for its current base; an empty or
// indeterminate table is left for the next user request to rebuild.
func RefreshCurrentBase(ctx context.Context, execID string, r refresher) error {
	result, ok, err := r.RefreshCurrent(ctx)
	if err != nil {
		return err
	}
	if !ok {
		logrus.Infof("Nothing to refresh this time; execID: %s", execID)
		return nil
	}
	logrus.Infof("%d rates were refreshed for base %s; execID: %s", result.Written, result.Base, execID)
	return nil
}

func NewScheduler(r refresher, refreshInterval time.Duration) *Scheduler {
	if refreshInterval <= 0 {
		refreshInterval = defaultRefreshInterval
	}
	return &Scheduler{refresher: r, refreshInterval: refreshInterval}
}
