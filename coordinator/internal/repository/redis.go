package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/sizzlebits/layerlens/common/settings"
)

const (
	globalKey       = "lens:settings:global"
	domainKeyPrefix = "lens:settings:domain:"
)

// RedisRepository stores the global record and each domain override as a
// JSON value under its own key.
type RedisRepository struct {
	client *redis.Client
}

func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client}
}

func (r *RedisRepository) Global(ctx context.Context) (*settings.Override, error) {
	return r.get(ctx, globalKey, false)
}

func (r *RedisRepository) SaveGlobal(ctx context.Context, o settings.Override) error {
	return r.set(ctx, globalKey, o)
}

func (r *RedisRepository) Domain(ctx context.Context, domain string) (*settings.Override, error) {
	return r.get(ctx, domainKeyPrefix+domain, true)
}

func (r *RedisRepository) SaveDomain(ctx context.Context, domain string, o settings.Override) error {
	return r.set(ctx, domainKeyPrefix+domain, o)
}

func (r *RedisRepository) DeleteDomain(ctx context.Context, domain string) error {
	n, err := r.client.Del(ctx, domainKeyPrefix+domain).Result()
	if err != nil {
		return fmt.Errorf("deleting domain settings: %w", err)
	}
	if n == 0 {
		return ErrDomainNotFound
	}
	return nil
}

func (r *RedisRepository) Domains(ctx context.Context) (map[string]settings.Override, error) {
	out := make(map[string]settings.Override)
	iter := r.client.Scan(ctx, 0, domainKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		o, err := r.get(ctx, key, false)
		if err != nil {
			return nil, err
		}
		if o != nil {
			out[strings.TrimPrefix(key, domainKeyPrefix)] = *o
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scanning domain settings: %w", err)
	}
	return out, nil
}

// ReplaceAll stages every write in one transactional pipeline so a failed
// import cannot leave a half-replaced store.
func (r *RedisRepository) ReplaceAll(ctx context.Context, global settings.Override, domains map[string]settings.Override) error {
	stale, err := r.client.Keys(ctx, domainKeyPrefix+"*").Result()
	if err != nil {
		return fmt.Errorf("listing domain settings: %w", err)
	}

	pipe := r.client.TxPipeline()
	if len(stale) > 0 {
		pipe.Del(ctx, stale...)
	}
	data, err := json.Marshal(global)
	if err != nil {
		return fmt.Errorf("encoding global settings: %w", err)
	}
	pipe.Set(ctx, globalKey, data, 0)
	for domain, o := range domains {
		data, err := json.Marshal(o)
		if err != nil {
			return fmt.Errorf("encoding settings for %q: %w", domain, err)
		}
		pipe.Set(ctx, domainKeyPrefix+domain, data, 0)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("replacing settings: %w", err)
	}
	return nil
}

func (r *RedisRepository) Close() {
	r.client.Close()
}

func (r *RedisRepository) get(ctx context.Context, key string, notFoundErr bool) (*settings.Override, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		if notFoundErr {
			return nil, ErrDomainNotFound
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	var o settings.Override
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", key, err)
	}
	return &o, nil
}

func (r *RedisRepository) set(ctx context.Context, key string, o settings.Override) error {
	data, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}
