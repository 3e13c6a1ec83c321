package queue

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"
)

// Storage persists the serialized queue document under a single key. The
// store is the only writer; backends never interpret the bytes.
type Storage interface {
	// Load returns the persisted document, or nil when nothing has been
	// persisted yet.
	Load(ctx context.Context) ([]byte, error)

	// Save replaces the persisted document.
	Save(ctx context.Context, data []byte) error
}

// FileStorage keeps the document in a single JSON file on local disk. This
// is the default backend, standing in for the device storage the mobile app
// used.
type FileStorage struct {
	path string
}

// NewFileStorage returns a file-backed Storage writing to path.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

func (f *FileStorage) Load(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, nil // no queue persisted yet, valid empty state
	}
	if err != nil {
		return nil, fmt.Errorf("read queue file: %w", err)
	}
	return data, nil
}

// Save writes via a temp file and rename so a crash mid-write never leaves a
// truncated document behind.
func (f *FileStorage) Save(ctx context.Context, data []byte) error {
	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".queue-*")
	if err != nil {
		return fmt.Errorf("create temp queue file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write queue file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close queue file: %w", err)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod queue file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace queue file: %w", err)
	}
	return nil
}

// RedisStorage keeps the document under a single Redis key, for deployments
// where the agent's state lives in a local Redis instead of on disk.
type RedisStorage struct {
	rdb *redis.Client
	key string
}

// NewRedisStorage returns a Redis-backed Storage using the key as the single
// storage slot. The address should be in the format "host:port".
func NewRedisStorage(addr, key string) *RedisStorage {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &RedisStorage{rdb: rdb, key: key}
}

func (r *RedisStorage) Load(ctx context.Context) ([]byte, error) {
	data, err := r.rdb.Get(ctx, r.key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read queue key: %w", err)
	}
	return data, nil
}

func (r *RedisStorage) Save(ctx context.Context, data []byte) error {
	if err := r.rdb.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("write queue key: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (r *RedisStorage) Close() error {
	return r.rdb.Close()
}
