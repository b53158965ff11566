// Package storage manages uploaded evidence files on local disk: one
// directory per session, plus a cron-driven retention sweeper.
package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorhill/cronexpr"
)

// Uploads stores incoming evidence files under root/<sessionID>/.
type Uploads struct {
	root      string
	retention time.Duration
	logger    *log.Logger
}

// NewUploads prepares the upload root.
func NewUploads(root string, retention time.Duration, logger *log.Logger) (*Uploads, error) {
	if logger == nil {
		logger = log.New(log.Writer(), "[UPLOADS] ", log.LstdFlags)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload root: %w", err)
	}
	return &Uploads{root: root, retention: retention, logger: logger}, nil
}

// SessionDir returns (and creates) the directory for one session.
func (u *Uploads) SessionDir(sessionID string) (string, error) {
	dir := filepath.Join(u.root, sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating session directory: %w", err)
	}
	return dir, nil
}

// Save writes one uploaded file into the session directory and returns its
// path on disk. The filename is flattened to its base name so uploads can
// never escape the session directory.
func (u *Uploads) Save(sessionID, filename string, r io.Reader) (string, error) {
	dir, err := u.SessionDir(sessionID)
	if err != nil {
		return "", err
	}
	name := sanitizeFilename(filename)
	if name == "" {
		return "", fmt.Errorf("invalid filename %q", filename)
	}
	dst := filepath.Join(dir, name)
	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("creating upload file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("writing upload file: %w", err)
	}
	return dst, nil
}

// URL returns the serving path for a stored upload.
func (u *Uploads) URL(sessionID, filename string) string {
	return "/uploads/" + sessionID + "/" + sanitizeFilename(filename)
}

// Sweep removes session directories older than the retention window.
func (u *Uploads) Sweep(now time.Time) (removed int, err error) {
	if u.retention <= 0 {
		return 0, nil
	}
	entries, err := os.ReadDir(u.root)
	if err != nil {
		return 0, fmt.Errorf("reading upload root: %w", err)
	}
	cutoff := now.Add(-u.retention)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		dir := filepath.Join(u.root, e.Name())
		if err := os.RemoveAll(dir); err != nil {
			u.logger.Printf("failed to remove expired session dir %s: %v", dir, err)
			continue
		}
		removed++
	}
	return removed, nil
}

// RunSweeper blocks, sweeping expired session directories on the cron
// schedule until the context is cancelled.
func (u *Uploads) RunSweeper(ctx context.Context, cronSpec string) error {
	expr, err := cronexpr.Parse(cronSpec)
	if err != nil {
		return fmt.Errorf("parsing sweep schedule %q: %w", cronSpec, err)
	}
	for {
		next := expr.Next(time.Now())
		if next.IsZero() {
			return fmt.Errorf("sweep schedule %q has no future occurrence", cronSpec)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-time.After(time.Until(next)):
			removed, err := u.Sweep(now)
			if err != nil {
				u.logger.Printf("sweep failed: %v", err)
				continue
			}
			if removed > 0 {
				u.logger.Printf("swept %d expired session dir(s)", removed)
			}
		}
	}
}

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == ".." || name == "/" {
		return ""
	}
	return name
}
