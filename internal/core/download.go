package core

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

// Downloader fetches URLs to local files with the same retry and backoff
// policy as the command runner. It never returns an error: callers get a
// boolean and the destination is cleaned up on failure.
type Downloader struct {
	Log     *log.Logger
	Client  *http.Client
	Retries int

	sleep func(context.Context, time.Duration) error
}

// NewDownloader creates a Downloader logging through logger.
func NewDownloader(logger *log.Logger) *Downloader {
	return &Downloader{
		Log:     logger,
		Client:  &http.Client{Timeout: DefaultTimeout},
		Retries: DefaultRetries,
		sleep:   sleepCtx,
	}
}

// Fetch downloads url to dest, creating parent directories. Each attempt
// must leave dest existing and non-empty; an empty or partial file counts
// as a failed attempt and is deleted before the next try. After the final
// attempt any partial file is removed and Fetch returns false.
func (d *Downloader) Fetch(ctx context.Context, url, dest string) bool {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		if d.Log != nil {
			d.Log.Error("creating download directory", "dir", filepath.Dir(dest), "err", err)
		}
		return false
	}

	retries := d.Retries
	if retries <= 0 {
		retries = DefaultRetries
	}
	sleep := d.sleep
	if sleep == nil {
		sleep = sleepCtx
	}
	client := d.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}

	delay := DefaultRetryDelay
	for attempt := 1; attempt <= retries; attempt++ {
		if d.Log != nil {
			d.Log.Debug("downloading", "url", url, "dest", dest, "attempt", attempt)
		}

		err := d.fetchOnce(ctx, client, url, dest)
		if err == nil {
			if info, statErr := os.Stat(dest); statErr == nil && info.Size() > 0 {
				return true
			}
			err = fmt.Errorf("downloaded file is empty")
		}

		_ = os.Remove(dest)
		if ctx.Err() != nil {
			return false
		}
		if d.Log != nil {
			d.Log.Warn("download failed", "url", url, "err", err, "attempt", attempt)
		}
		if attempt < retries {
			if sleep(ctx, delay) != nil {
				return false
			}
			delay *= 2
		}
	}

	return false
}

func (d *Downloader) fetchOnce(ctx context.Context, client *http.Client, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("server returned %s", resp.Status)
	}

	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
