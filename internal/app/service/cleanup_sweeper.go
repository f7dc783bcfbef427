package service

import (
	"context"
	"time"

	"github.com/shredlink/shredlink/internal/app/repository"
	infraPrometheus "github.com/shredlink/shredlink/internal/infra/prometheus"
	"go.uber.org/zap"
)

// CleanupSweeper periodically deletes dead links (expired, view-consumed or
// password-consumed). It is purely reclamation: the services already refuse
// to serve dead rows, the sweeper only bounds storage growth.
type CleanupSweeper struct {
	logger   *zap.Logger
	repo     repository.LinkRepository
	interval time.Duration
	stopChan chan struct{}
}

// NewCleanupSweeper creates a sweeper that runs every interval.
func NewCleanupSweeper(logger *zap.Logger, repo repository.LinkRepository, interval time.Duration) *CleanupSweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &CleanupSweeper{
		logger:   logger,
		repo:     repo,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the periodic sweep. The first run happens one full interval
// after startup; the ticker then fires independently of request volume.
func (s *CleanupSweeper) Start() {
	go s.run()
}

// Stop terminates the sweep loop.
func (s *CleanupSweeper) Stop() {
	close(s.stopChan)
}

func (s *CleanupSweeper) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopChan:
			s.logger.Info("cleanup sweeper stopped")
			return
		}
	}
}

func (s *CleanupSweeper) sweep() {
	ctx := context.Background()

	deleted, err := s.repo.DeleteDead(ctx, time.Now())
	if err != nil {
		s.logger.Error("failed to delete dead links", zap.Error(err))
		return
	}

	if deleted > 0 {
		infraPrometheus.LinksSwept.Add(float64(deleted))
		s.logger.Info("cleanup deleted dead links", zap.Int64("count", deleted))
	}
}
