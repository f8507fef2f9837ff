package services

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/brandcrew/brandcrew/internal/config"
)

// ConcurrencyLimiter controls how many pipeline runs can execute
// simultaneously. It uses channel-based counting semaphores at two levels:
// global and per-project.
type ConcurrencyLimiter struct {
	global      chan struct{}
	perProject  map[string]chan struct{}
	mu          sync.Mutex
	limits      config.LimitsConfig
	activeCount atomic.Int64
}

// NewConcurrencyLimiter creates a limiter with the given limits.
func NewConcurrencyLimiter(limits config.LimitsConfig) *ConcurrencyLimiter {
	if limits.GlobalMax <= 0 {
		limits.GlobalMax = 10
	}
	if limits.PerProject <= 0 {
		limits.PerProject = 1
	}

	return &ConcurrencyLimiter{
		global:     make(chan struct{}, limits.GlobalMax),
		perProject: make(map[string]chan struct{}),
		limits:     limits,
	}
}

// Acquire blocks until both global and per-project slots are available,
// or returns an error if the context is cancelled.
func (c *ConcurrencyLimiter) Acquire(ctx context.Context, projectID string) error {
	select {
	case c.global <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	projCh := c.getOrCreateProjectChan(projectID)
	select {
	case projCh <- struct{}{}:
		c.activeCount.Add(1)
		return nil
	case <-ctx.Done():
		// Release global slot since we couldn't get per-project.
		<-c.global
		return ctx.Err()
	}
}

// Release returns both the global and per-project slots.
func (c *ConcurrencyLimiter) Release(projectID string) {
	c.activeCount.Add(-1)

	c.mu.Lock()
	if ch, ok := c.perProject[projectID]; ok {
		select {
		case <-ch:
		default:
		}
	}
	c.mu.Unlock()

	select {
	case <-c.global:
	default:
	}
}

// Active returns the number of runs currently holding slots.
func (c *ConcurrencyLimiter) Active() int64 {
	return c.activeCount.Load()
}

func (c *ConcurrencyLimiter) getOrCreateProjectChan(projectID string) chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.perProject[projectID]
	if !ok {
		ch = make(chan struct{}, c.limits.PerProject)
		c.perProject[projectID] = ch
	}
	return ch
}
