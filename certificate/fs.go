// Package certificate stores medical certificate files for leave records.
//
// Two backends implement leave.CertificateStore: a local directory (FSStore)
// and an S3-compatible bucket (S3Store). References returned by Save are
// opaque to the leave core and only meaningful to the store that made them.
package certificate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/warp/leave-engine/leave"
)

var _ leave.CertificateStore = (*FSStore)(nil)

// FSStore copies certificates into a directory.
type FSStore struct {
	dir string
	now func() time.Time
}

func NewFSStore(dir string) *FSStore {
	return &FSStore{dir: dir, now: time.Now}
}

// Dir is the directory certificates are copied into.
func (s *FSStore) Dir() string { return s.dir }

// Save copies f.SourcePath to cert_<employee>_<leave>_<timestamp>_<suffix><ext>
// and returns that file name.
func (s *FSStore) Save(ctx context.Context, f leave.CertificateFile) (string, error) {
	src, err := os.Open(f.SourcePath)
	if err != nil {
		return "", fmt.Errorf("open certificate: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create certificate dir: %w", err)
	}

	name := fileName(f, s.now())
	dst, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create certificate: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", fmt.Errorf("copy certificate: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("close certificate: %w", err)
	}
	return name, nil
}

// Remove deletes a saved copy. A missing file is not an error.
func (s *FSStore) Remove(ctx context.Context, ref string) error {
	if ref == "" || ref != filepath.Base(ref) {
		return fmt.Errorf("invalid certificate reference %q", ref)
	}
	err := os.Remove(filepath.Join(s.dir, ref))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove certificate: %w", err)
	}
	return nil
}

// Path resolves a reference to the file on disk.
func (s *FSStore) Path(ref string) string { return filepath.Join(s.dir, filepath.Base(ref)) }

func fileName(f leave.CertificateFile, at time.Time) string {
	employee := sanitize(f.EmployeeNumber)
	if employee == "" {
		employee = "unknown"
	}
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return fmt.Sprintf("cert_%s_%s_%s_%s%s",
		employee, f.LeaveID, at.Format("20060102_150405"), suffix, strings.ToLower(filepath.Ext(f.SourcePath)))
}

// sanitize keeps file names portable.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return '_'
		}
	}, strings.TrimSpace(s))
}
