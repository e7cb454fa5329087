// Package cache holds verification records keyed by certificate number.
// Certificates never change after issuance, so entries only expire by TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "cert:verify:"

type Record struct {
	StudentName       string    `json:"studentName"`
	CourseName        string    `json:"courseName"`
	IssuedAt          time.Time `json:"issuedAt"`
	CertificateNumber string    `json:"certificateNumber"`
}

type VerificationCache interface {
	Get(ctx context.Context, number string) (*Record, bool, error)
	Set(ctx context.Context, rec Record) error
}

type Memory struct {
	c *gocache.Cache
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{c: gocache.New(ttl, 2*ttl)}
}

func (m *Memory) Get(_ context.Context, number string) (*Record, bool, error) {
	v, ok := m.c.Get(number)
	if !ok {
		return nil, false, nil
	}
	rec := v.(Record)
	return &rec, true, nil
}

func (m *Memory) Set(_ context.Context, rec Record) error {
	m.c.SetDefault(rec.CertificateNumber, rec)
	return nil
}

type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// NewRedisFromURL parses a redis:// URL and checks the server answers.
func NewRedisFromURL(ctx context.Context, url string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return NewRedis(client, ttl), nil
}

func (r *Redis) Get(ctx context.Context, number string) (*Record, bool, error) {
	raw, err := r.client.Get(ctx, redisKeyPrefix+number).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, false, err
	}
	return &rec, true, nil
}

func (r *Redis) Set(ctx context.Context, rec Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, redisKeyPrefix+rec.CertificateNumber, raw, r.ttl).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}

// Noop never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, string) (*Record, bool, error) { return nil, false, nil }

func (Noop) Set(context.Context, Record) error { return nil }
