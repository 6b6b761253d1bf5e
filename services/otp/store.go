package otp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"taskmaster/models"

	"github.com/go-redis/redis/v8"
)

var ErrSheetNotFound = errors.New("otp sheet not found or closed")

// SheetStore holds open OTP sheets. Closing a sheet deletes it.
type SheetStore interface {
	Save(ctx context.Context, sheet models.OTPSheet) error
	Get(ctx context.Context, id string) (*models.OTPSheet, error)
	Delete(ctx context.Context, id string) error
}

// MemorySheetStore keeps sheets in process memory.
type MemorySheetStore struct {
	mu     sync.RWMutex
	sheets map[string]models.OTPSheet
}

func NewMemorySheetStore() *MemorySheetStore {
	return &MemorySheetStore{sheets: make(map[string]models.OTPSheet)}
}

func (m *MemorySheetStore) Save(_ context.Context, sheet models.OTPSheet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sheets[sheet.ID] = sheet
	return nil
}

func (m *MemorySheetStore) Get(_ context.Context, id string) (*models.OTPSheet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sheet, ok := m.sheets[id]
	if !ok {
		return nil, ErrSheetNotFound
	}
	return &sheet, nil
}

func (m *MemorySheetStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sheets, id)
	return nil
}

const SheetKeyPrefix = "otpSheet:"

// RedisSheetStore keeps sheets in Redis as JSON. Every save renews the TTL, so
// an abandoned sheet disappears on its own.
type RedisSheetStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSheetStore(client *redis.Client, ttl time.Duration) *RedisSheetStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisSheetStore{client: client, ttl: ttl}
}

func (r *RedisSheetStore) Save(ctx context.Context, sheet models.OTPSheet) error {
	data, err := json.Marshal(sheet)
	if err != nil {
		return fmt.Errorf("failed to marshal otp sheet: %w", err)
	}
	if err := r.client.Set(ctx, SheetKeyPrefix+sheet.ID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save otp sheet: %w", err)
	}
	return nil
}

func (r *RedisSheetStore) Get(ctx context.Context, id string) (*models.OTPSheet, error) {
	data, err := r.client.Get(ctx, SheetKeyPrefix+id).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrSheetNotFound
		}
		return nil, fmt.Errorf("failed to retrieve otp sheet: %w", err)
	}
	var sheet models.OTPSheet
	if err := json.Unmarshal([]byte(data), &sheet); err != nil {
		return nil, fmt.Errorf("failed to parse otp sheet: %w", err)
	}
	return &sheet, nil
}

func (r *RedisSheetStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, SheetKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("failed to delete otp sheet: %w", err)
	}
	return nil
}
