package certificate

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-engine/leave"
)

func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

// =============================================================================
// FILESYSTEM STORE
// =============================================================================

func TestFSStore_SaveAndRemove(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "certs")
	store := NewFSStore(dir)
	store.now = func() time.Time { return time.Date(2024, 3, 4, 10, 30, 0, 0, time.UTC) }
	src := writeSource(t, "scan.PDF", "medical")
	ctx := context.Background()

	ref, err := store.Save(ctx, leave.CertificateFile{LeaveID: 12, EmployeeNumber: "P 100/7", SourcePath: src})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(ref, "cert_P_100_7_12_20240304_103000_"), ref)
	assert.True(t, strings.HasSuffix(ref, ".pdf"), ref)
	data, err := os.ReadFile(store.Path(ref))
	require.NoError(t, err)
	assert.Equal(t, "medical", string(data))

	require.NoError(t, store.Remove(ctx, ref))
	_, err = os.Stat(store.Path(ref))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Remove(ctx, ref), "removing twice is not an error")
}

func TestFSStore_SameSecondDoesNotCollide(t *testing.T) {
	store := NewFSStore(t.TempDir())
	store.now = func() time.Time { return time.Date(2024, 3, 4, 10, 30, 0, 0, time.UTC) }
	src := writeSource(t, "scan.jpg", "x")
	f := leave.CertificateFile{LeaveID: 1, EmployeeNumber: "P1", SourcePath: src}

	a, err := store.Save(context.Background(), f)
	require.NoError(t, err)
	b, err := store.Save(context.Background(), f)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestFSStore_MissingSource(t *testing.T) {
	store := NewFSStore(t.TempDir())
	_, err := store.Save(context.Background(), leave.CertificateFile{LeaveID: 1, SourcePath: "/does/not/exist.pdf"})
	assert.Error(t, err)
}

func TestFSStore_RejectsPathTraversal(t *testing.T) {
	store := NewFSStore(t.TempDir())
	assert.Error(t, store.Remove(context.Background(), "../outside.pdf"))
}

// =============================================================================
// S3 STORE
// =============================================================================

type fakeObjects struct {
	puts    map[string]string
	types   map[string]string
	deleted []string
}

func (f *fakeObjects) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.puts[*in.Key] = string(body)
	if in.ContentType != nil {
		f.types[*in.Key] = *in.ContentType
	}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Store_SaveAndRemove(t *testing.T) {
	objects := &fakeObjects{puts: map[string]string{}, types: map[string]string{}}
	store := newS3Store(objects, "leave-bucket", "")
	src := writeSource(t, "scan.pdf", "medical")
	ctx := context.Background()

	ref, err := store.Save(ctx, leave.CertificateFile{LeaveID: 9, EmployeeNumber: "P9", SourcePath: src})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(ref, "certificates/P9/9/"), ref)
	assert.Equal(t, "medical", objects.puts[ref])
	assert.Equal(t, "application/pdf", objects.types[ref])

	require.NoError(t, store.Remove(ctx, ref))
	assert.Equal(t, []string{ref}, objects.deleted)

	assert.Error(t, store.Remove(ctx, "other/key.pdf"))
}

func TestNewS3Store_RequiresBucket(t *testing.T) {
	_, err := NewS3Store(context.Background(), S3Config{})
	assert.Error(t, err)
}
