package service

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultExpirerInterval = 5 * time.Minute
	defaultSessionTTL      = 1 * time.Hour
)

// ExpirerService evicts idle agent sessions on a periodic schedule so
// abandoned episodes do not accumulate in memory.
type ExpirerService struct {
	sessions *SessionService
	logger   *zap.Logger

	interval time.Duration
	ttl      time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewExpirerService(sessions *SessionService, logger *zap.Logger) *ExpirerService {
	return &ExpirerService{
		sessions: sessions,
		logger:   logger,
		interval: defaultExpirerInterval,
		ttl:      defaultSessionTTL,
		stopCh:   make(chan struct{}),
	}
}

func (s *ExpirerService) SetInterval(d time.Duration) {
	s.interval = d
}

func (s *ExpirerService) SetTTL(d time.Duration) {
	s.ttl = d
}

// Start runs the expirer in a background goroutine.
func (s *ExpirerService) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("session expirer started",
			zap.Duration("interval", s.interval),
			zap.Duration("ttl", s.ttl))

		for {
			select {
			case <-ticker.C:
				if n := s.sessions.EvictIdle(s.ttl); n > 0 {
					s.logger.Info("evicted idle sessions", zap.Int("count", n))
				}
			case <-s.stopCh:
				s.logger.Info("session expirer stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the expirer.
func (s *ExpirerService) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}
