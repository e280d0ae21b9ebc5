package storage

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"

	"qr-service/internal/domain"
)

const (
	defaultMaxKeys         = 100000
	defaultCleanupInterval = time.Minute
)

// MemoryStorage implementa domain.RateLimiterStorage em memória.
// Todas as mutações passam pelo mesmo mutex, então cada janela é atualizada de forma serializada.
// order mantém as janelas por WindowStart crescente: a frente é sempre a mais antiga.
type MemoryStorage struct {
	data            map[string]*list.Element
	order           *list.List
	mutex           sync.Mutex
	clock           domain.Clock
	maxKeys         int
	cleanupInterval time.Duration
	logger          domain.Logger

	stop     chan struct{}
	stopOnce sync.Once
}

// MemoryOption customiza o MemoryStorage
type MemoryOption func(*MemoryStorage)

// WithClock troca o relógio (testes)
func WithClock(clock domain.Clock) MemoryOption {
	return func(m *MemoryStorage) {
		m.clock = clock
	}
}

// WithMaxKeys limita o número de janelas mantidas em memória
func WithMaxKeys(maxKeys int) MemoryOption {
	return func(m *MemoryStorage) {
		if maxKeys > 0 {
			m.maxKeys = maxKeys
		}
	}
}

// WithCleanupInterval define a periodicidade da limpeza; 0 desativa a goroutine
func WithCleanupInterval(interval time.Duration) MemoryOption {
	return func(m *MemoryStorage) {
		m.cleanupInterval = interval
	}
}

// NewMemoryStorage cria uma nova instância do MemoryStorage
func NewMemoryStorage(logger domain.Logger, opts ...MemoryOption) *MemoryStorage {
	storage := &MemoryStorage{
		data:            make(map[string]*list.Element),
		order:           list.New(),
		clock:           domain.RealClock{},
		maxKeys:         defaultMaxKeys,
		cleanupInterval: defaultCleanupInterval,
		logger:          logger,
		stop:            make(chan struct{}),
	}

	for _, opt := range opts {
		opt(storage)
	}

	if storage.cleanupInterval > 0 {
		go storage.cleanup()
	}

	if logger != nil {
		logger.Info("Memory storage initialized", map[string]interface{}{
			"max_keys":         storage.maxKeys,
			"cleanup_interval": storage.cleanupInterval.String(),
		})
	}

	return storage
}

// Increment incrementa o contador da janela fixa de key.
// A janela é criada na primeira vez que a chave aparece e zera quando now >= windowStart+window.
func (m *MemoryStorage) Increment(ctx context.Context, key string, window time.Duration) (*domain.RateWindow, error) {
	start := time.Now()

	m.mutex.Lock()
	defer m.mutex.Unlock()

	now := m.clock.Now()

	var status *domain.RateWindow
	if elem, exists := m.data[key]; exists {
		status = elem.Value.(*domain.RateWindow)
		if status.Expired(now) {
			status.Count = 0
			status.WindowStart = now
			status.Window = window
			m.order.MoveToBack(elem)
		}
	} else {
		if len(m.data) >= m.maxKeys {
			m.evictLocked(now)
		}
		status = &domain.RateWindow{
			Key:         key,
			WindowStart: now,
			Window:      window,
		}
		m.data[key] = m.order.PushBack(status)
	}

	status.Count++

	result := *status
	m.logStorageOperation("INCREMENT", key, true, time.Since(start).Seconds()*1000, nil)
	return &result, nil
}

// Get recupera a janela atual de uma chave; janelas expiradas são tratadas como inexistentes
func (m *MemoryStorage) Get(ctx context.Context, key string) (*domain.RateWindow, error) {
	start := time.Now()

	m.mutex.Lock()
	defer m.mutex.Unlock()

	elem, exists := m.data[key]
	if !exists || elem.Value.(*domain.RateWindow).Expired(m.clock.Now()) {
		m.logStorageOperation("GET", key, true, time.Since(start).Seconds()*1000, nil)
		return nil, nil
	}

	result := *elem.Value.(*domain.RateWindow)
	m.logStorageOperation("GET", key, true, time.Since(start).Seconds()*1000, nil)
	return &result, nil
}

// Reset limpa os dados de uma chave
func (m *MemoryStorage) Reset(ctx context.Context, key string) error {
	start := time.Now()

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if elem, exists := m.data[key]; exists {
		m.order.Remove(elem)
		delete(m.data, key)
	}

	m.logStorageOperation("RESET", key, true, time.Since(start).Seconds()*1000, nil)
	return nil
}

// Health verifica se o storage está saudável
func (m *MemoryStorage) Health(ctx context.Context) error {
	select {
	case <-m.stop:
		return fmt.Errorf("memory storage is closed")
	default:
	}

	m.mutex.Lock()
	size := len(m.data)
	m.mutex.Unlock()

	if m.logger != nil {
		m.logger.Debug("Memory storage health check", map[string]interface{}{
			"data_entries": size,
		})
	}
	return nil
}

// Close para a limpeza periódica e descarta todas as janelas
func (m *MemoryStorage) Close() error {
	m.stopOnce.Do(func() {
		close(m.stop)
	})

	m.mutex.Lock()
	m.data = make(map[string]*list.Element)
	m.order.Init()
	m.mutex.Unlock()

	if m.logger != nil {
		m.logger.Info("Memory storage closed", nil)
	}
	return nil
}

// GetStats retorna estatísticas do storage em memória
func (m *MemoryStorage) GetStats() map[string]interface{} {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return map[string]interface{}{
		"data_entries": len(m.data),
		"max_keys":     m.maxKeys,
		"type":         string(MemoryStorageType),
	}
}

// cleanup remove janelas expiradas periodicamente.
// Um panic aqui não pertence a nenhuma requisição: é logado e propagado, derrubando o processo.
func (m *MemoryStorage) cleanup() {
	defer func() {
		if r := recover(); r != nil {
			if m.logger != nil {
				m.logger.Error("Memory storage janitor crashed", fmt.Errorf("%v", r), nil)
			}
			panic(r)
		}
	}()

	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.cleanupExpiredEntries()
		}
	}
}

// cleanupExpiredEntries remove janelas expiradas e retorna quantas foram removidas
func (m *MemoryStorage) cleanupExpiredEntries() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	removed := m.removeExpiredLocked(m.clock.Now())

	if removed > 0 && m.logger != nil {
		m.logger.Debug("Memory storage cleanup completed", map[string]interface{}{
			"removed_data": removed,
			"remaining":    len(m.data),
		})
	}
	return removed
}

func (m *MemoryStorage) removeExpiredLocked(now time.Time) int {
	removed := 0
	for elem := m.order.Front(); elem != nil; {
		next := elem.Next()
		if status := elem.Value.(*domain.RateWindow); status.Expired(now) {
			m.order.Remove(elem)
			delete(m.data, status.Key)
			removed++
		}
		elem = next
	}
	return removed
}

// evictLocked abre espaço para uma nova chave removendo a janela mais antiga, em O(1).
// Janelas expiradas ficam para o janitor; só a remoção de uma janela ativa gera warning.
func (m *MemoryStorage) evictLocked(now time.Time) {
	for len(m.data) >= m.maxKeys {
		elem := m.order.Front()
		if elem == nil {
			return
		}
		oldest := m.order.Remove(elem).(*domain.RateWindow)
		delete(m.data, oldest.Key)

		if !oldest.Expired(now) && m.logger != nil {
			m.logger.Warn("Memory storage full, evicting oldest window", map[string]interface{}{
				"evicted_key": oldest.Key,
				"max_keys":    m.maxKeys,
			})
		}
	}
}

// logStorageOperation registra operações de storage
func (m *MemoryStorage) logStorageOperation(operation, key string, success bool, latency float64, err error) {
	if m.logger == nil {
		return
	}

	if success {
		m.logger.Debug("Storage operation completed", map[string]interface{}{
			"operation": operation,
			"key":       key,
			"latency":   latency,
		})
	} else {
		m.logger.Error("Storage operation failed", err, map[string]interface{}{
			"operation": operation,
			"key":       key,
			"latency":   latency,
		})
	}
}
