package storage

import (
	"context"
	"fmt"
)

// Open builds the Store selected by backend: "memory", "file" (rooted at path) or "redis".
func Open(ctx context.Context, backend, path, redisURL string) (Store, error) {
	switch backend {
	case "memory":
		return NewMemoryStore(), nil
	case "file", "":
		return NewFileStore(path)
	case "redis":
		return NewRedisStore(ctx, redisURL, "pantry:")
	default:
		return nil, fmt.Errorf("unknown key-value backend %q", backend)
	}
}
