package scratch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/segmentio/ksuid"

	nhttp "github.com/chaos-io/rmbg/util/http"
)

const filePrefix = "input-"

// Dir 是下载图片的临时目录，目录在第一次下载时创建
type Dir struct {
	root   string
	cli    nhttp.IClient
	logger *slog.Logger
}

func NewDir(root string, cli nhttp.IClient, logger *slog.Logger) *Dir {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dir{root: root, cli: cli, logger: logger}
}

func (d *Dir) Root() string {
	return d.root
}

// Download fetches url into a new file under the directory. Every payload is stored
// as .jpg whatever its real type. The returned release func deletes the file and is
// safe to call more than once.
func (d *Dir) Download(ctx context.Context, url string) (string, func(), error) {
	if err := os.MkdirAll(d.root, 0o755); err != nil {
		return "", nil, fmt.Errorf("create scratch dir: %w", err)
	}

	body, err := d.cli.DoStreamRequest(ctx, &nhttp.RequestParam{
		RequestURI: url,
		Method:     http.MethodGet,
	})
	if err != nil {
		return "", nil, fmt.Errorf("download %s: %w", url, err)
	}
	defer func() {
		_ = body.Close()
	}()

	path := filepath.Join(d.root, filePrefix+ksuid.New().String()+".jpg")
	f, err := os.Create(path)
	if err != nil {
		return "", nil, fmt.Errorf("create file: %w", err)
	}

	release := func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			d.logger.Warn("remove staged file", slog.String("path", path), slog.Any("error", err))
		}
	}

	n, err := io.Copy(f, body)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		release()
		return "", nil, fmt.Errorf("write %s: %w", path, err)
	}

	d.logger.Debug("staged file", slog.String("url", url), slog.String("path", path), slog.Int64("size", n))
	return path, release, nil
}

// Sweep removes staged files older than maxAge and reports how many were deleted.
func (d *Dir) Sweep(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(d.root)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), filePrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(d.root, e.Name())); err != nil && !os.IsNotExist(err) {
			d.logger.Warn("sweep staged file", slog.String("name", e.Name()), slog.Any("error", err))
			continue
		}
		removed++
	}
	return removed, nil
}

// StartJanitor runs Sweep on the given cron schedule. Stop the returned cron on shutdown.
func (d *Dir) StartJanitor(spec string, maxAge time.Duration) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		n, err := d.Sweep(maxAge)
		if err != nil {
			d.logger.Error("sweep scratch dir", slog.String("dir", d.root), slog.Any("error", err))
			return
		}
		if n > 0 {
			d.logger.Info("swept stale files", slog.String("dir", d.root), slog.Int("removed", n))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule janitor: %w", err)
	}
	c.Start()
	return c, nil
}
