package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DiskSink writes objects below Dir.
type DiskSink struct {
	Dir string
}

func (s DiskSink) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p := filepath.Join(s.Dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create capture dir: %w", err)
	}
	return os.WriteFile(p, data, 0o644)
}
