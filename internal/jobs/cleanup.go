package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/aiframe/capture-server-go/internal/repository"
)

// CleanupJob periodically removes capture session directories whose oldest
// file has aged past the retention window.
type CleanupJob struct {
	captureRepo repository.CaptureRepository
	retention   time.Duration
	interval    time.Duration
	done        chan struct{}
}

func NewCleanupJob(captureRepo repository.CaptureRepository, retention, interval time.Duration) *CleanupJob {
	return &CleanupJob{
		captureRepo: captureRepo,
		retention:   retention,
		interval:    interval,
		done:        make(chan struct{}),
	}
}

func (j *CleanupJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Dur("retention", j.retention).Msg("cleanup job started")
}

func (j *CleanupJob) Stop() {
	close(j.done)
	log.Info().Msg("cleanup job stopped")
}

func (j *CleanupJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.cleanup()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.cleanup()
		}
	}
}

func (j *CleanupJob) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-j.retention)
	count, err := j.captureRepo.DeleteExpired(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("failed to clean up old sessions")
	} else if count > 0 {
		log.Info().Int64("count", count).Msg("cleaned up old sessions")
	}
}
