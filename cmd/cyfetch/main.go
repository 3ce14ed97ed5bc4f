package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/earthsignals/cygnss-gridder/cygnss"
	"github.com/earthsignals/cygnss-gridder/internal/credentials"
	"github.com/earthsignals/cygnss-gridder/internal/logging"
	"github.com/earthsignals/cygnss-gridder/model"
)

const dateLayout = "2006-01-02"

func main() {
	level := flag.String("level", "L1", "data product level")
	version := flag.String("version", "v3.1", "product version")
	startDate := flag.String("start", "", "start date, YYYY-MM-DD")
	endDate := flag.String("end", "", "end date (inclusive), YYYY-MM-DD; defaults to start")
	destDir := flag.String("dest", os.Getenv("CYGNSS_DATA_PATH"), "destination data directory (default $CYGNSS_DATA_PATH)")
	envPath := flag.String("env", "", "path to a .env file with Earthdata credentials (default ./.env)")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, log, *level, *version, *startDate, *endDate, *destDir, *envPath); err != nil {
		log.Error(ctx, "download failed", logging.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, log logging.Logger, levelName, version, startDate, endDate, destDir, envPath string) error {
	if destDir == "" {
		return fmt.Errorf("no destination: pass -dest or set CYGNSS_DATA_PATH")
	}
	if startDate == "" {
		return fmt.Errorf("-start is required")
	}
	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return fmt.Errorf("parsing -start: %w", err)
	}
	end := start
	if endDate != "" {
		if end, err = time.Parse(dateLayout, endDate); err != nil {
			return fmt.Errorf("parsing -end: %w", err)
		}
	}
	level, err := model.ParseProductLevel(levelName)
	if err != nil {
		return err
	}

	creds, err := credentials.Load(envPath)
	if err != nil {
		return err
	}

	d, err := cygnss.NewDownloader(creds, cygnss.WithDownloadLogger(log))
	if err != nil {
		return err
	}

	written, err := d.DownloadRange(ctx, level, version, start, end, destDir)
	log.Info(ctx, "download finished", logging.Int("granules", len(written)))
	return err
}
