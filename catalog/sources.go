package catalog

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"prodflow/store"
)

// StoreSource reads active paths from the relational store.
type StoreSource struct {
	DB *store.DB
}

func (s StoreSource) ListActivePaths(ctx context.Context) ([]Path, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.DB.ListActivePaths()
	if err != nil {
		return nil, err
	}
	out := make([]Path, 0, len(rows))
	for _, p := range rows {
		out = append(out, Path{Code: p.Code, Name: p.Name, Version: p.Version, Operations: p.Operations})
	}
	return out, nil
}

const mirrorKey = "prodflow:catalog:paths"

// RedisMirror keeps the last good snapshot in redis so a cold process can
// serve routing while the store is unreachable.
type RedisMirror struct {
	client *redis.Client
}

func NewRedisMirror(client *redis.Client) *RedisMirror {
	return &RedisMirror{client: client}
}

func (m *RedisMirror) SavePaths(ctx context.Context, paths []Path) error {
	data, err := json.Marshal(paths)
	if err != nil {
		return err
	}
	return m.client.Set(ctx, mirrorKey, data, 0).Err()
}

func (m *RedisMirror) LoadPaths(ctx context.Context) ([]Path, error) {
	data, err := m.client.Get(ctx, mirrorKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var paths []Path
	return paths, json.Unmarshal(data, &paths)
}
