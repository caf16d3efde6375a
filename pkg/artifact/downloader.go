package artifact

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// ProgressCallback is called with download progress updates.
type ProgressCallback func(downloaded, total int64)

// Downloader fetches release packages over HTTP.
type Downloader struct {
	client *http.Client
}

// NewDownloader creates a new downloader. The client carries no timeout:
// release packages are large and the caller controls cancellation through
// the context.
func NewDownloader() *Downloader {
	return &Downloader{
		client: &http.Client{Timeout: 0},
	}
}

// DownloadOptions configures a download.
type DownloadOptions struct {
	URL        string
	DestPath   string
	SHA256     string // Expected checksum (optional)
	OnProgress ProgressCallback
}

// Download fetches a file to opts.DestPath. The transfer goes through a
// ".partial" temp file that is renamed into place only on success, so a
// failed run never leaves a truncated package under the final name.
func (d *Downloader) Download(ctx context.Context, opts DownloadOptions) error {
	destDir := filepath.Dir(opts.DestPath)
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	tmpPath := opts.DestPath + ".partial"
	out, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	renamed := false
	defer func() {
		out.Close()
		if !renamed {
			os.Remove(tmpPath)
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opts.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed: HTTP %d for %s", resp.StatusCode, opts.URL)
	}

	reader := &progressReader{
		reader:     resp.Body,
		total:      resp.ContentLength,
		onProgress: opts.OnProgress,
	}

	if _, err := io.Copy(out, reader); err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	// Close before rename
	out.Close()

	if opts.SHA256 != "" {
		hash, err := fileSHA256(tmpPath)
		if err != nil {
			return fmt.Errorf("failed to calculate checksum: %w", err)
		}
		if hash != opts.SHA256 {
			return fmt.Errorf("checksum mismatch: expected %s, got %s", opts.SHA256, hash)
		}
	}

	if err := os.Rename(tmpPath, opts.DestPath); err != nil {
		return fmt.Errorf("failed to move file: %w", err)
	}
	renamed = true

	return nil
}

// DownloadRelease fetches a registry release into destDir under the
// release's canonical filename and returns the resulting path.
func (d *Downloader) DownloadRelease(ctx context.Context, rel Release, destDir string, onProgress ProgressCallback) (string, error) {
	if destDir == "" {
		destDir = "."
	}
	destPath := filepath.Join(destDir, rel.Filename())

	err := d.Download(ctx, DownloadOptions{
		URL:        rel.URL(),
		DestPath:   destPath,
		SHA256:     rel.SHA256,
		OnProgress: onProgress,
	})
	if err != nil {
		return "", err
	}

	return destPath, nil
}

// progressReader wraps a reader and reports progress.
type progressReader struct {
	reader     io.Reader
	total      int64
	downloaded int64
	onProgress ProgressCallback
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	if n > 0 {
		r.downloaded += int64(n)
		if r.onProgress != nil {
			r.onProgress(r.downloaded, r.total)
		}
	}
	return n, err
}

// fileSHA256 calculates the SHA256 checksum of a file.
func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
