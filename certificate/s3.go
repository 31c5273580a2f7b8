package certificate

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/warp/leave-engine/leave"
)

var _ leave.CertificateStore = (*S3Store)(nil)

// S3Config holds explicit construction parameters. Credentials come from the
// default AWS chain (environment, shared config, instance role).
type S3Config struct {
	Region    string
	Bucket    string
	Endpoint  string // optional; set for MinIO and other S3-compatible services
	PathStyle bool
	Prefix    string // key prefix, default "certificates"
}

// objectAPI is the part of *s3.Client the store uses.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store uploads certificates to a single bucket. References are object keys.
type S3Store struct {
	client objectAPI
	bucket string
	prefix string
}

// NewS3Store builds a client from cfg.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return newS3Store(client, cfg.Bucket, cfg.Prefix), nil
}

func newS3Store(client objectAPI, bucket, prefix string) *S3Store {
	if prefix == "" {
		prefix = "certificates"
	}
	return &S3Store{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// Save uploads the source file under <prefix>/<employee>/<leave>/<uuid><ext>.
func (s *S3Store) Save(ctx context.Context, f leave.CertificateFile) (string, error) {
	src, err := os.Open(f.SourcePath)
	if err != nil {
		return "", fmt.Errorf("open certificate: %w", err)
	}
	defer src.Close()

	employee := sanitize(f.EmployeeNumber)
	if employee == "" {
		employee = "unknown"
	}
	ext := strings.ToLower(filepath.Ext(f.SourcePath))
	key := path.Join(s.prefix, employee, f.LeaveID.String(), uuid.NewString()+ext)

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   src,
		Metadata: map[string]string{
			"leave-id":        f.LeaveID.String(),
			"employee-number": f.EmployeeNumber,
		},
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		input.ContentType = aws.String(ct)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("upload certificate: %w", err)
	}
	return key, nil
}

// Remove deletes the object. S3 reports success for missing keys.
func (s *S3Store) Remove(ctx context.Context, ref string) error {
	if !strings.HasPrefix(ref, s.prefix+"/") {
		return fmt.Errorf("invalid certificate reference %q", ref)
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref),
	})
	if err != nil {
		return fmt.Errorf("delete certificate: %w", err)
	}
	return nil
}
