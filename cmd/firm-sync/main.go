// cmd/firm-sync/main.go
//
// Manual trigger for the firm synchronization pipeline. Invoked by scripts
// or admin actions; there is no scheduler or webhook here.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"firmsync/internal/cms"
	"firmsync/internal/common/config"
	"firmsync/internal/common/database"
	"firmsync/internal/common/logger"
	"firmsync/internal/lock"
	"firmsync/internal/models"
	"firmsync/internal/searchindex"
	"firmsync/internal/store"
	syncer "firmsync/internal/sync"
)

func main() {
	syncCmd := flag.NewFlagSet("sync", flag.ExitOnError)
	syncFirmID := syncCmd.Int64("firm", 0, "Firm ID to synchronize")

	verifyCmd := flag.NewFlagSet("set-verification", flag.ExitOnError)
	verifyFirmID := verifyCmd.Int64("firm", 0, "Firm ID")
	verifyState := verifyCmd.String("state", "", "Verification state (pending, verified, rejected)")
	verifyFixIndex := verifyCmd.Bool("fix-index", false, "Also rewrite the verification mirror directly in the search index")

	fixCmd := flag.NewFlagSet("fix-index", flag.ExitOnError)
	fixFirmID := fixCmd.Int64("firm", 0, "Firm ID")

	searchCmd := flag.NewFlagSet("search", flag.ExitOnError)
	searchQuery := searchCmd.String("query", "", "Free-text query (prints the top hit)")

	metricsAddr := os.Getenv("METRICS_ADDR")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	zapLog := logger.New("info", "console")
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format)
	log = logger.NewZapAdapter(zapLog)

	if metricsAddr != "" {
		// Scrape endpoint for long batch invocations.
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			_ = http.ListenAndServe(metricsAddr, nil)
		}()
	}

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		zapLog.Fatal("postgres init failed", zap.Error(err))
	}
	defer pg.Close()

	ctx := context.Background()
	if err := pg.Ping(ctx); err != nil {
		zapLog.Fatal("postgres unreachable", zap.Error(err))
	}

	var lease syncer.Lease
	if cfg.Database.Redis.Address != "" {
		rc, err := database.NewRedis(cfg.Database.Redis)
		if err != nil {
			zapLog.Fatal("redis init failed", zap.Error(err))
		}
		defer rc.Close()
		if err := rc.Ping(ctx); err != nil {
			zapLog.Fatal("redis unreachable", zap.Error(err))
		}
		lease = lock.NewFirmLease(rc.Client, config.GetDuration(cfg.Sync.LockTTL), log)
	}

	firmStore := store.NewFirmStore(pg.DB, log)
	publisher := cms.NewClient(cfg.CMS, log)
	indexClient := searchindex.NewClient(cfg.SearchIndex, log)
	index := searchindex.NewSyncer(indexClient, log)

	orch := syncer.New(firmStore, publisher, index, lease, syncer.Options{
		VerifyPropagation:   cfg.Sync.VerifyPropagation,
		PropagationAttempts: cfg.Sync.PropagationAttempts,
		PropagationDelay:    config.GetDuration(cfg.Sync.PropagationDelay),
	}, log)

	switch os.Args[1] {
	case "sync":
		syncCmd.Parse(os.Args[2:])
		if *syncFirmID == 0 {
			fmt.Println("Error: -firm is required for sync.")
			syncCmd.Usage()
			os.Exit(1)
		}
		result, err := orch.SyncFirm(ctx, *syncFirmID)
		exitOn(zapLog, err)
		printJSON(result)

	case "set-verification":
		verifyCmd.Parse(os.Args[2:])
		if *verifyFirmID == 0 || *verifyState == "" {
			fmt.Println("Error: -firm and -state are required for set-verification.")
			verifyCmd.Usage()
			os.Exit(1)
		}
		result, err := orch.SetVerification(ctx, *verifyFirmID, models.VerificationState(*verifyState))
		exitOn(zapLog, err)
		if *verifyFixIndex {
			exitOn(zapLog, orch.FixIndexVerification(ctx, *verifyFirmID))
		}
		printJSON(result)

	case "fix-index":
		fixCmd.Parse(os.Args[2:])
		if *fixFirmID == 0 {
			fmt.Println("Error: -firm is required for fix-index.")
			fixCmd.Usage()
			os.Exit(1)
		}
		exitOn(zapLog, orch.FixIndexVerification(ctx, *fixFirmID))
		fmt.Println("verification mirror rewritten")

	case "search":
		searchCmd.Parse(os.Args[2:])
		if *searchQuery == "" {
			fmt.Println("Error: -query is required for search.")
			searchCmd.Usage()
			os.Exit(1)
		}
		hit, err := indexClient.TopHit(ctx, *searchQuery)
		exitOn(zapLog, err)
		if hit == nil {
			fmt.Println("no hits")
			return
		}
		printJSON(hit)

	default:
		help()
		os.Exit(1)
	}
}

func exitOn(zapLog *zap.Logger, err error) {
	if err != nil {
		zapLog.Error("command failed", zap.Error(err))
		os.Exit(1)
	}
}

func printJSON(v interface{}) {
	out, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(out))
}

func help() {
	fmt.Println(`Usage: firm-sync <command> [flags]

Commands:
  sync              Full synchronization of a firm to the CMS
  set-verification  Write a firm's verification state and re-sync
  fix-index         Rewrite the verification mirror directly in the search index
  search            Diagnostic free-text query against the search index`)
}
