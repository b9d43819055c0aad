package server

import (
	"sync"

	"golang.org/x/time/rate"
)

// maxTrackedClients bounds the limiter map; it is reset when full
const maxTrackedClients = 10000

// clientLimiter keeps one token bucket per client address
type clientLimiter struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	clients map[string]*rate.Limiter
}

func newClientLimiter(perSecond float64, burst int) *clientLimiter {
	return &clientLimiter{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		clients: make(map[string]*rate.Limiter),
	}
}

func (l *clientLimiter) allow(client string) bool {
	l.mu.Lock()
	limiter, ok := l.clients[client]
	if !ok {
		if len(l.clients) >= maxTrackedClients {
			l.clients = make(map[string]*rate.Limiter)
		}
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.clients[client] = limiter
	}
	l.mu.Unlock()

	return limiter.Allow()
}
