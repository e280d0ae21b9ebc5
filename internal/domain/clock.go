package domain

import (
	"sync"
	"time"
)

// Clock abstrai o relógio para que janelas de rate limit sejam testáveis sem sleep
type Clock interface {
	Now() time.Time
}

// RealClock usa o relógio do sistema
type RealClock struct{}

// Now retorna a hora atual do sistema
func (RealClock) Now() time.Time {
	return time.Now()
}

// MockClock é um relógio controlável para testes
type MockClock struct {
	mu      sync.Mutex
	current time.Time
}

// NewMockClock cria um MockClock no instante t
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{current: t}
}

// Now retorna o instante atual do mock
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Advance avança o relógio em d
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

// Set posiciona o relógio em t
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = t
}
