package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// SyncResult summarises a Sync call.
type SyncResult struct {
	Upstream string
	Copied   int
	Skipped  int
	Removed  int
	Issues   []Issue
}

// Sync mirrors the song posts found in the first existing upstream directory
// into target. Each valid JSON object is rewritten pretty-printed; target
// files that no longer exist upstream are removed.
func Sync(ctx context.Context, fs afero.Fs, upstreams []string, target string, logger *zap.Logger) (SyncResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	upstream, err := firstDir(fs, upstreams)
	if err != nil {
		return SyncResult{}, err
	}
	files, err := ListFiles(fs, upstream)
	if err != nil {
		return SyncResult{}, err
	}
	if len(files) == 0 {
		return SyncResult{}, fmt.Errorf("%w: %s", ErrSourceEmpty, upstream)
	}
	if err := fs.MkdirAll(target, 0o750); err != nil {
		return SyncResult{}, fmt.Errorf("create target dir %s: %w", target, err)
	}

	res := SyncResult{Upstream: upstream}
	keep := make(map[string]struct{}, len(files))
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("sync canceled: %w", err)
		}
		keep[name] = struct{}{}
		raw, err := afero.ReadFile(fs, filepath.Join(upstream, name))
		if err != nil {
			return res, fmt.Errorf("read %s: %w", name, err)
		}
		formatted, err := reformat(raw)
		if err != nil {
			res.Skipped++
			res.Issues = append(res.Issues, Issue{File: name, Reason: err.Error()})
			logger.Warn("skipping upstream song post", zap.String("file", name), zap.Error(err))
			continue
		}
		if err := afero.WriteFile(fs, filepath.Join(target, name), formatted, 0o600); err != nil {
			return res, fmt.Errorf("write %s: %w", name, err)
		}
		res.Copied++
	}

	existing, err := ListFiles(fs, target)
	if err != nil {
		return res, err
	}
	for _, name := range existing {
		if _, ok := keep[name]; ok {
			continue
		}
		if err := fs.Remove(filepath.Join(target, name)); err != nil {
			return res, fmt.Errorf("remove stale %s: %w", name, err)
		}
		res.Removed++
	}

	logger.Info("song posts synced",
		zap.String("upstream", upstream),
		zap.String("target", target),
		zap.Int("copied", res.Copied),
		zap.Int("skipped", res.Skipped),
		zap.Int("removed", res.Removed),
	)
	return res, nil
}

func firstDir(fs afero.Fs, candidates []string) (string, error) {
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if ok, err := afero.DirExists(fs, candidate); err == nil && ok {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: tried %v", ErrSourceMissing, candidates)
}

func reformat(raw []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("invalid JSON object")
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, fmt.Errorf("invalid JSON object: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, trimmed, "", "  "); err != nil {
		return nil, fmt.Errorf("indent: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
