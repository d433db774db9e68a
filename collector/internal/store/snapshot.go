package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sizzlebits/layerlens/common/logging"
	"github.com/sizzlebits/layerlens/common/models"
)

const snapshotKeyPrefix = "lens:events:"

// Snapshotter persists per-tab event buffers to Redis so the collector can
// rehydrate them after a restart. Rehydrated events are marked with the
// persisted source suffix and entries older than maxAge are discarded.
type Snapshotter struct {
	client *redis.Client
	maxAge time.Duration
	log    *logging.Logger
}

// NewSnapshotter wraps an existing Redis client. maxAge <= 0 disables the
// age cutoff (snapshots are kept until overwritten or deleted).
func NewSnapshotter(client *redis.Client, maxAge time.Duration, log *logging.Logger) *Snapshotter {
	if log == nil {
		log = logging.Default()
	}
	return &Snapshotter{client: client, maxAge: maxAge, log: log}
}

func snapshotKey(tabID int) string {
	return snapshotKeyPrefix + strconv.Itoa(tabID)
}

// Save stores the tab's current buffer, replacing any previous snapshot.
// The snapshot expires with maxAge so closed tabs do not pile up in Redis.
func (sn *Snapshotter) Save(ctx context.Context, tabID int, events []models.CapturedEvent) error {
	data, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("marshaling snapshot for tab %d: %w", tabID, err)
	}
	if err := sn.client.Set(ctx, snapshotKey(tabID), data, sn.maxAge).Err(); err != nil {
		return fmt.Errorf("saving snapshot for tab %d: %w", tabID, err)
	}
	return nil
}

// Load returns the tab's snapshot with the persisted source marker applied
// and stale entries dropped. A missing snapshot is an empty result, not an
// error.
func (sn *Snapshotter) Load(ctx context.Context, tabID int) ([]models.CapturedEvent, error) {
	data, err := sn.client.Get(ctx, snapshotKey(tabID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading snapshot for tab %d: %w", tabID, err)
	}

	var events []models.CapturedEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("decoding snapshot for tab %d: %w", tabID, err)
	}

	var cutoff time.Time
	if sn.maxAge > 0 {
		cutoff = time.Now().Add(-sn.maxAge)
	}

	out := make([]models.CapturedEvent, 0, len(events))
	for _, evt := range events {
		if !cutoff.IsZero() && evt.Time().Before(cutoff) {
			continue
		}
		if !strings.HasSuffix(evt.Source, models.PersistedSourceSuffix) {
			evt.Source += models.PersistedSourceSuffix
		}
		out = append(out, evt)
	}
	return out, nil
}

// Delete removes the tab's snapshot.
func (sn *Snapshotter) Delete(ctx context.Context, tabID int) error {
	if err := sn.client.Del(ctx, snapshotKey(tabID)).Err(); err != nil {
		return fmt.Errorf("deleting snapshot for tab %d: %w", tabID, err)
	}
	return nil
}

// Restore rehydrates every persisted tab into the store and returns the
// number of events restored. Individual bad snapshots are logged and
// skipped; a cold restart should never fail because one tab's snapshot
// went stale or corrupt.
func (sn *Snapshotter) Restore(ctx context.Context, s *Store) (int, error) {
	var restored int
	iter := sn.client.Scan(ctx, 0, snapshotKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		tabID, err := strconv.Atoi(strings.TrimPrefix(key, snapshotKeyPrefix))
		if err != nil {
			sn.log.Warn("skipping malformed snapshot key", "key", key)
			continue
		}

		events, err := sn.Load(ctx, tabID)
		if err != nil {
			sn.log.Warn("skipping unreadable snapshot", logging.TabID(tabID), logging.Error(err))
			continue
		}

		// Load returns newest-first; Seed wants oldest-first.
		for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
			events[i], events[j] = events[j], events[i]
		}
		s.Seed(tabID, events)
		restored += len(events)
	}
	if err := iter.Err(); err != nil {
		return restored, fmt.Errorf("scanning snapshots: %w", err)
	}
	return restored, nil
}
