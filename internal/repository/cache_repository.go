package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/acadplan/acadplan-api/internal/dto"
)

// ErrCacheMiss signals that no cached report exists for the key.
var ErrCacheMiss = redis.Nil

// ConflictCacheRepository stores computed conflict reports in Redis so that
// repeated detection runs over unchanged schedules skip the pairwise scan.
type ConflictCacheRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewConflictCacheRepository creates a cache repository with the given TTL.
func NewConflictCacheRepository(client *redis.Client, ttl time.Duration) *ConflictCacheRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ConflictCacheRepository{client: client, ttl: ttl}
}

// reportKey is stable under reordering of the schedule id set.
func reportKey(institutionID string, scheduleIDs []string) string {
	ids := append([]string(nil), scheduleIDs...)
	sort.Strings(ids)
	return fmt.Sprintf("acadplan:conflicts:%s:%s", institutionID, strings.Join(ids, ","))
}

// GetReport returns a cached conflict report, or ErrCacheMiss.
func (r *ConflictCacheRepository) GetReport(ctx context.Context, institutionID string, scheduleIDs []string) (*dto.ConflictReport, error) {
	raw, err := r.client.Get(ctx, reportKey(institutionID, scheduleIDs)).Bytes()
	if err != nil {
		return nil, err
	}
	var report dto.ConflictReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, fmt.Errorf("decode cached conflict report: %w", err)
	}
	return &report, nil
}

// SetReport caches a conflict report for the configured TTL.
func (r *ConflictCacheRepository) SetReport(ctx context.Context, institutionID string, scheduleIDs []string, report *dto.ConflictReport) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode conflict report: %w", err)
	}
	if err := r.client.Set(ctx, reportKey(institutionID, scheduleIDs), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("cache conflict report: %w", err)
	}
	return nil
}

// InvalidateInstitution drops every cached report for the institution. Entry
// writes call this since any schedule change can alter cross-schedule
// conflicts.
func (r *ConflictCacheRepository) InvalidateInstitution(ctx context.Context, institutionID string) error {
	pattern := fmt.Sprintf("acadplan:conflicts:%s:*", institutionID)
	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan conflict cache: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate conflict cache: %w", err)
	}
	return nil
}
