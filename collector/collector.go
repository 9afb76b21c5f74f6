package collector

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/vainnor/attendance-portal/session"
	"github.com/vainnor/attendance-portal/types"
)

// Collector polls the session slot and keeps the last observed session, so
// readers see faculty start and stop within one polling interval.
type Collector struct {
	source session.Source
	now    func() time.Time

	mu      sync.RWMutex
	current *types.AttendanceSession
	stats   types.CollectionStats
}

func NewCollector(source session.Source) *Collector {
	return &Collector{
		source: source,
		now:    time.Now,
		stats: types.CollectionStats{
			StartTime: time.Now(),
		},
	}
}

func (c *Collector) GetStats() types.CollectionStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// Active returns the last observed session, or nil.
func (c *Collector) Active() *types.AttendanceSession {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return nil
	}
	s := *c.current
	return &s
}

// ActiveFor returns the observed session when it belongs to courseCode.
func (c *Collector) ActiveFor(courseCode string) *types.AttendanceSession {
	s := c.Active()
	if s == nil || !strings.EqualFold(s.CourseCode, strings.TrimSpace(courseCode)) {
		return nil
	}
	return s
}

// Poll reads the slot once and records what changed.
func (c *Collector) Poll(ctx context.Context) error {
	s, err := c.source.Get(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.stats.LastPoll = now
	c.stats.TotalPolls++
	if err != nil {
		c.stats.FailedPolls++
		return err
	}

	if sessionID(s) != sessionID(c.current) {
		c.stats.LastChange = now
		if s != nil {
			c.stats.SessionsSeen++
			log.Printf("[COLLECTOR] attendance session %s started for %s", s.ID, s.CourseCode)
		} else {
			log.Printf("[COLLECTOR] attendance session %s ended", c.current.ID)
		}
	}
	c.current = s
	c.stats.ActiveCourse = ""
	if s != nil {
		c.stats.ActiveCourse = s.CourseCode
	}
	return nil
}

// Run polls every interval until ctx is cancelled.
func (c *Collector) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Initial collection
	if err := c.Poll(ctx); err != nil {
		log.Printf("[COLLECTOR] error polling session slot: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Poll(ctx); err != nil && ctx.Err() == nil {
				log.Printf("[COLLECTOR] error polling session slot: %v", err)
			}
		}
	}
}

func sessionID(s *types.AttendanceSession) string {
	if s == nil {
		return ""
	}
	return s.ID
}
