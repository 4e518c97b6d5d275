package main

import (
	"context"
	"flag"
	"time"

	"github.com/zetaforge/gitwire/modules/trace"

	"github.com/zetaforge/gitwire/internal/memgraph"
	"github.com/zetaforge/gitwire/pkg/gitwire/objid"
	"github.com/zetaforge/gitwire/pkg/gitwire/pack"
	"github.com/zetaforge/gitwire/pkg/gitwire/repo"
	"github.com/zetaforge/gitwire/pkg/gitwire/types"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	verbose := flag.Bool("verbose", false, "enable debug tracing")
	refName := flag.String("ref", "main", "branch name to clone")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fatalf("%v", err)
	}

	debug := trace.NewDebuger(*verbose)
	debug.DbgPrint("loaded config: database.dsn=%q object_store.backend=%q", cfg.Database.DSN, cfg.ObjectStore.Backend)

	caps := buildCapabilities(cfg)

	start := time.Now()
	result, err := pack.GeneratePackItemStream(context.Background(), caps, types.GeneratePackItemStreamRequest{
		RequestedRefs:         types.RefsIncluded(*refName),
		RequestedSymrefs:      types.SymrefsIncludeHead(types.NameWithTarget),
		TagInclusion:          types.TagWithTarget,
		DeltaInclusion:        types.DeltaInclude(0.5),
		PackfileItemInclusion: types.Generate,
		Windows: types.Windows{
			CommitWindow: cfg.Concurrency.CommitWindow,
			EntryWindow:  cfg.Concurrency.EntryWindow,
		},
	})
	if err != nil {
		fatalf("gitwire-serve: generating pack item stream: %v", err)
	}
	debug.DbgPrint("resolved %d refs, %d items, object_count=%d in %v", len(result.RefMap), len(result.Items), result.ObjectCount, time.Since(start))
}

// buildCapabilities wires a repo.Capabilities. Without a configured
// database DSN this falls back to an in-memory fixture (memgraph) with
// a single demo commit, so the binary runs standalone; a real deployment
// supplies cfg.Database.DSN and cfg.ObjectStore.Backend to reach
// sqlrepo/ossblob/objcache instead.
func buildCapabilities(cfg Config) repo.Capabilities {
	if cfg.Database.DSN == "" {
		return demoFixture()
	}
	return wireProductionCapabilities(cfg)
}

func demoFixture() repo.Capabilities {
	g := memgraph.New("demo")
	// A single commit with no tree/blob entries is enough to exercise
	// ls-refs and the clone path end to end without a backing database.
	cs := objid.NewChangesetId([]byte("demo"))
	commitBytes := []byte("demo commit")
	oid := objid.HashGitObject(objid.KindCommit, commitBytes)
	g.AddCommit(cs, oid)
	g.AddBookmark(types.CategoryBranch, "main", cs)
	g.SetSymref("HEAD", "refs/heads/main")
	g.PutObjectBytes(oid, commitBytes)
	return g.Capabilities()
}
