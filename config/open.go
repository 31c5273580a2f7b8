package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/warp/leave-engine/certificate"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/metrics"
	"github.com/warp/leave-engine/store/postgres"
	"github.com/warp/leave-engine/store/sqldb"
	"github.com/warp/leave-engine/store/sqlite"
)

// OpenStore connects to the configured database and migrates it.
func (c *Config) OpenStore(ctx context.Context) (*sqldb.Store, error) {
	switch c.Database.Driver {
	case "postgres":
		return postgres.New(ctx, c.Database.DSN)
	case "sqlite":
		if c.Database.DSN != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(c.Database.DSN), 0o755); err != nil {
				return nil, fmt.Errorf("create database dir: %w", err)
			}
		}
		return sqlite.New(c.Database.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
}

// OpenCertificates returns the configured certificate store, or nil for "none".
func (c *Config) OpenCertificates(ctx context.Context) (leave.CertificateStore, error) {
	switch c.Certificates.Driver {
	case "fs":
		return certificate.NewFSStore(c.Certificates.Dir), nil
	case "s3":
		s3cfg := certificate.S3Config{
			Region:    c.Certificates.S3.Region,
			Bucket:    c.Certificates.S3.Bucket,
			Endpoint:  c.Certificates.S3.Endpoint,
			PathStyle: c.Certificates.S3.PathStyle,
			Prefix:    c.Certificates.S3.Prefix,
		}
		return certificate.NewS3Store(ctx, s3cfg)
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported certificate driver %q", c.Certificates.Driver)
	}
}

// NewService opens the store and certificate backend and builds a service
// over them. Close the returned store when done.
func (c *Config) NewService(ctx context.Context, logger *slog.Logger, m *metrics.Metrics) (*leave.Service, *sqldb.Store, error) {
	rules, err := c.TypeRules()
	if err != nil {
		return nil, nil, err
	}
	fixed, err := c.FixedHolidays()
	if err != nil {
		return nil, nil, err
	}
	certs, err := c.OpenCertificates(ctx)
	if err != nil {
		return nil, nil, err
	}
	store, err := c.OpenStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	svc := leave.NewService(store).
		WithRules(rules).
		WithFixedHolidays(fixed).
		WithLogger(logger).
		WithMetrics(m)
	if certs != nil {
		svc.WithCertificates(certs)
	}
	return svc, store, nil
}
