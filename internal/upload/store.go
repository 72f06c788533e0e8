// Package upload persists resume attachments on the local filesystem.
// References handed out by Save are bare file names relative to the store
// directory; they are what gets recorded on the owning job record.
package upload

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// MaxFileSize is the upload cap for a single resume.
const MaxFileSize = 5 << 20 // 5 MiB

const acceptedMimeType = "application/pdf"

var (
	ErrUnsupportedType = errors.New("only PDF files are allowed")
	ErrTooLarge        = errors.New("file exceeds maximum size")
	ErrNotFound        = errors.New("file not found")
)

type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore ensures the upload directory exists and returns a store rooted
// at it.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Save validates the declared type and size, then writes the bytes under a
// timestamped name derived from the original filename. The returned
// reference is usable with Open and Delete.
func (s *Store) Save(r io.Reader, originalName, mimeType string, size int64) (string, error) {
	if mimeType != acceptedMimeType {
		return "", ErrUnsupportedType
	}
	if size > MaxFileSize {
		return "", ErrTooLarge
	}

	name := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), sanitizeName(originalName))
	dst := filepath.Join(s.dir, name)

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}

	// The declared size comes from the multipart header and is not trusted:
	// copy one byte past the cap so an oversized stream is caught.
	written, err := io.CopyN(f, r, MaxFileSize+1)
	if closeErr := f.Close(); err == nil || err == io.EOF {
		err = closeErr
	}
	if err != nil && err != io.EOF {
		os.Remove(dst)
		return "", fmt.Errorf("write upload file: %w", err)
	}
	if written > MaxFileSize {
		os.Remove(dst)
		return "", ErrTooLarge
	}

	return name, nil
}

// Open returns a reader over the stored file. ErrNotFound is returned when
// the underlying object no longer exists, e.g. removed out-of-band.
func (s *Store) Open(ref string) (*os.File, error) {
	path, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open upload file: %w", err)
	}
	return f, nil
}

// Delete removes the stored file. Callers treat failures as best-effort.
func (s *Store) Delete(ref string) error {
	path, err := s.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("remove upload file: %w", err)
	}
	return nil
}

// DownloadName composes the outbound filename for a resume download. It is
// never used for storage addressing.
func (s *Store) DownloadName(ref, company, recordID string) string {
	return fmt.Sprintf("resume_%s_%s%s", sanitizeName(company), recordID, filepath.Ext(ref))
}

// resolve maps a reference to an absolute path, rejecting anything that
// would escape the store directory.
func (s *Store) resolve(ref string) (string, error) {
	if ref == "" || ref != filepath.Base(ref) || strings.HasPrefix(ref, ".") {
		return "", ErrNotFound
	}
	return filepath.Join(s.dir, ref), nil
}

func sanitizeName(name string) string {
	name = filepath.Base(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := b.String()
	if out == "" || strings.Trim(out, ".") == "" {
		out = "file"
	}
	return out
}
