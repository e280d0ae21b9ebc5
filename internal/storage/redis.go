package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"qr-service/internal/domain"

	"github.com/go-redis/redis/v8"
)

// incrementScript incrementa o contador da janela e fixa a expiração só na abertura da janela,
// então a chave some sozinha quando a janela fecha.
var incrementScript = redis.NewScript(`
	local count = redis.call('HINCRBY', KEYS[1], 'count', 1)
	if count == 1 then
		redis.call('HSET', KEYS[1], 'window', ARGV[1])
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
	end
	local ttl = redis.call('PTTL', KEYS[1])
	if ttl < 0 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
		ttl = tonumber(ARGV[1])
	end
	local window = tonumber(redis.call('HGET', KEYS[1], 'window'))
	return {count, ttl, window}
`)

// RedisStorage implementa domain.RateLimiterStorage usando Redis,
// permitindo que várias instâncias compartilhem os mesmos contadores
type RedisStorage struct {
	client *redis.Client
	clock  domain.Clock
	logger domain.Logger
}

// NewRedisStorage cria uma nova instância do RedisStorage e testa a conexão
func NewRedisStorage(host, port, password string, db int, logger domain.Logger) (*RedisStorage, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: password,
		DB:       db,

		PoolSize:     20,
		MinIdleConns: 5,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,
		IdleTimeout:  5 * time.Minute,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if logger != nil {
		logger.Info("Redis connection established", map[string]interface{}{
			"host": host,
			"port": port,
			"db":   db,
		})
	}

	return NewRedisStorageFromClient(rdb, logger), nil
}

// NewRedisStorageFromClient embrulha um cliente já configurado
func NewRedisStorageFromClient(client *redis.Client, logger domain.Logger) *RedisStorage {
	return &RedisStorage{
		client: client,
		clock:  domain.RealClock{},
		logger: logger,
	}
}

// Increment incrementa atomicamente o contador da janela de key
func (r *RedisStorage) Increment(ctx context.Context, key string, window time.Duration) (*domain.RateWindow, error) {
	start := time.Now()

	windowMs := window.Milliseconds()
	if windowMs <= 0 {
		return nil, fmt.Errorf("invalid window %s for key %s", window, key)
	}

	result, err := incrementScript.Run(ctx, r.client, []string{key}, windowMs).Result()
	if err != nil {
		r.logStorageOperation("INCREMENT", key, false, time.Since(start).Seconds()*1000, err)
		return nil, fmt.Errorf("failed to increment key %s: %w", key, err)
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 3 {
		err := fmt.Errorf("invalid increment result for key %s", key)
		r.logStorageOperation("INCREMENT", key, false, time.Since(start).Seconds()*1000, err)
		return nil, err
	}

	count, err := toInt64(values[0])
	if err != nil {
		return nil, fmt.Errorf("invalid count in result for key %s: %w", key, err)
	}
	ttlMs, err := toInt64(values[1])
	if err != nil {
		return nil, fmt.Errorf("invalid ttl in result for key %s: %w", key, err)
	}
	storedWindowMs, err := toInt64(values[2])
	if err != nil {
		return nil, fmt.Errorf("invalid window in result for key %s: %w", key, err)
	}

	r.logStorageOperation("INCREMENT", key, true, time.Since(start).Seconds()*1000, nil)
	return r.buildWindow(key, count, ttlMs, storedWindowMs), nil
}

// Get recupera a janela atual de uma chave
func (r *RedisStorage) Get(ctx context.Context, key string) (*domain.RateWindow, error) {
	start := time.Now()

	pipe := r.client.Pipeline()
	fieldsCmd := pipe.HMGet(ctx, key, "count", "window")
	ttlCmd := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		r.logStorageOperation("GET", key, false, time.Since(start).Seconds()*1000, err)
		return nil, fmt.Errorf("failed to get key %s: %w", key, err)
	}

	fields := fieldsCmd.Val()
	if len(fields) != 2 || fields[0] == nil || fields[1] == nil {
		r.logStorageOperation("GET", key, true, time.Since(start).Seconds()*1000, nil)
		return nil, nil
	}

	count, err := toInt64(fields[0])
	if err != nil {
		return nil, fmt.Errorf("invalid count for key %s: %w", key, err)
	}
	windowMs, err := toInt64(fields[1])
	if err != nil {
		return nil, fmt.Errorf("invalid window for key %s: %w", key, err)
	}

	r.logStorageOperation("GET", key, true, time.Since(start).Seconds()*1000, nil)
	return r.buildWindow(key, count, ttlCmd.Val().Milliseconds(), windowMs), nil
}

// Reset limpa os dados de uma chave
func (r *RedisStorage) Reset(ctx context.Context, key string) error {
	start := time.Now()

	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.logStorageOperation("RESET", key, false, time.Since(start).Seconds()*1000, err)
		return fmt.Errorf("failed to reset key %s: %w", key, err)
	}

	r.logStorageOperation("RESET", key, true, time.Since(start).Seconds()*1000, nil)
	return nil
}

// Health verifica se o storage está saudável
func (r *RedisStorage) Health(ctx context.Context) error {
	start := time.Now()

	if err := r.client.Ping(ctx).Err(); err != nil {
		r.logStorageOperation("HEALTH", "ping", false, time.Since(start).Seconds()*1000, err)
		return fmt.Errorf("redis health check failed: %w", err)
	}

	r.logStorageOperation("HEALTH", "ping", true, time.Since(start).Seconds()*1000, nil)
	return nil
}

// Close fecha a conexão com o storage
func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		if r.logger != nil {
			r.logger.Error("Failed to close Redis connection", err, nil)
		}
		return err
	}
	if r.logger != nil {
		r.logger.Info("Redis connection closed", nil)
	}
	return nil
}

// buildWindow reconstrói o início da janela a partir do TTL restante
func (r *RedisStorage) buildWindow(key string, count, ttlMs, windowMs int64) *domain.RateWindow {
	window := time.Duration(windowMs) * time.Millisecond
	remaining := time.Duration(ttlMs) * time.Millisecond
	if remaining < 0 || remaining > window {
		remaining = window
	}

	return &domain.RateWindow{
		Key:         key,
		Count:       int(count),
		WindowStart: r.clock.Now().Add(remaining - window),
		Window:      window,
	}
}

// logStorageOperation registra operações de storage
func (r *RedisStorage) logStorageOperation(operation, key string, success bool, latency float64, err error) {
	if r.logger == nil {
		return
	}

	if success {
		r.logger.Debug("Storage operation completed", map[string]interface{}{
			"operation": operation,
			"key":       key,
			"latency":   latency,
		})
	} else {
		r.logger.Error("Storage operation failed", err, map[string]interface{}{
			"operation": operation,
			"key":       key,
			"latency":   latency,
		})
	}
}

func toInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case string:
		return strconv.ParseInt(n, 10, 64)
	default:
		return strconv.ParseInt(fmt.Sprint(n), 10, 64)
	}
}
