// Command catalogctl imports screenshot catalogs and runs manual rotations.
//
//	catalogctl load <file.yaml>
//	catalogctl rotate [YYYY-MM-DD]
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/vytor/dailyshot/internal/app"
	"github.com/vytor/dailyshot/internal/catalog"
	"github.com/vytor/dailyshot/internal/config"
	"github.com/vytor/dailyshot/internal/db"
	"github.com/vytor/dailyshot/internal/logger"
	"github.com/vytor/dailyshot/internal/models"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage:")
	fmt.Fprintln(os.Stderr, "  catalogctl load <file.yaml>")
	fmt.Fprintln(os.Stderr, "  catalogctl rotate [YYYY-MM-DD]")
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cfg := config.Load()
	log := logger.New(logger.WithLevel(logger.ParseLevel(cfg.LogLevel)))
	logger.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer database.Close()

	ctx := logger.NewContext(context.Background(), log)
	engine := app.New(cfg, database, true)

	var out any
	switch os.Args[1] {
	case "load":
		if len(os.Args) != 3 {
			usage()
		}
		out, err = catalog.LoadFile(ctx, engine.CatalogRepo, os.Args[2])
	case "rotate":
		now := time.Now()
		if len(os.Args) == 3 {
			now, err = time.Parse(models.DateLayout, os.Args[2])
			if err != nil {
				log.Error("invalid date %q: %v", os.Args[2], err)
				os.Exit(2)
			}
		}
		out, err = engine.Sweeper.Run(ctx, now)
	default:
		usage()
	}
	if err != nil {
		log.Error("%s failed: %v", os.Args[1], err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
}
