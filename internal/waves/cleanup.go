// internal/waves/cleanup.go

package waves

import (
	"context"
	"log"
	"time"
)

// CleanupService sweeps expired waves on an interval.
type CleanupService struct {
	service  Service
	interval time.Duration
}

func NewCleanupService(service Service, interval time.Duration) *CleanupService {
	if interval <= 0 {
		interval = time.Hour
	}
	return &CleanupService{service: service, interval: interval}
}

// Start runs the sweep loop until ctx is cancelled. Call in a goroutine.
func (c *CleanupService) Start(ctx context.Context) {
	log.Printf("Starting wave cleanup service with interval: %v", c.interval)

	c.run(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.run(ctx)
		case <-ctx.Done():
			log.Println("Stopping wave cleanup service")
			return
		}
	}
}

func (c *CleanupService) run(ctx context.Context) {
	start := time.Now()
	removed, err := c.service.CleanupExpired(ctx)
	if err != nil {
		log.Printf("Failed to cleanup expired waves: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("Wave cleanup removed %d expired waves in %v", removed, time.Since(start))
	}
}
