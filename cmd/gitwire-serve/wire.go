package main

import (
	"context"

	"cloud.google.com/go/storage"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-sql-driver/mysql"

	"github.com/zetaforge/gitwire/internal/objcache"
	"github.com/zetaforge/gitwire/internal/ossblob"
	"github.com/zetaforge/gitwire/internal/sqlrepo"
	"github.com/zetaforge/gitwire/pkg/gitwire/repo"
)

// wireProductionCapabilities assembles sqlrepo + ossblob + objcache into
// a repo.Capabilities, the composition cmd/gitwire-serve exists to
// demonstrate. It exits the process on any setup failure rather than
// returning an error, matching cmd/zeta-serve/global.go's init-or-die
// style for one-shot startup wiring.
func wireProductionCapabilities(cfg Config) repo.Capabilities {
	mysqlCfg, err := mysql.ParseDSN(cfg.Database.DSN)
	if err != nil {
		fatalf("gitwire-serve: parsing database dsn: %v", err)
	}
	store, err := sqlrepo.Open(mysqlCfg, cfg.Database.RID)
	if err != nil {
		fatalf("gitwire-serve: opening database: %v", err)
	}

	backend := buildBlobBackend(cfg)
	cached, err := objcache.New(ossblob.New(backend), cfg.Cache.NumCounters, cfg.Cache.MaxCostMiB<<20, cfg.Cache.BufferItems)
	if err != nil {
		fatalf("gitwire-serve: building object cache: %v", err)
	}

	return repo.New(
		store.Bookmarks(),
		store.BonsaiGitMapping(),
		store.BonsaiTagMapping(),
		store.Symrefs(),
		store.CommitGraph(),
		store.DerivedData(),
		cached,
		store.Identity(),
	)
}

func buildBlobBackend(cfg Config) ossblob.Backend {
	ctx := context.Background()
	switch cfg.ObjectStore.Backend {
	case "gcs":
		client, err := storage.NewClient(ctx)
		if err != nil {
			fatalf("gitwire-serve: creating gcs client: %v", err)
		}
		return ossblob.NewGCSBackend(client.Bucket(cfg.ObjectStore.Bucket))
	case "s3", "":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.ObjectStore.Region))
		if err != nil {
			fatalf("gitwire-serve: loading aws config: %v", err)
		}
		return ossblob.NewS3Backend(s3.NewFromConfig(awsCfg), cfg.ObjectStore.Bucket)
	default:
		fatalf("gitwire-serve: unknown object_store.backend %q", cfg.ObjectStore.Backend)
		return nil
	}
}
