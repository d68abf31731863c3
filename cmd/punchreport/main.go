package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"path"
	"time"

	"github.com/joho/godotenv"

	"axiapac.com/punchclock/config"
	"axiapac.com/punchclock/infrastructure/devops"
	"axiapac.com/punchclock/infrastructure/filesystem"
	"axiapac.com/punchclock/report"
	"axiapac.com/punchclock/store"
	"axiapac.com/punchclock/utils"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	fromFlag := flag.String("from", "", "first day of the report (YYYY-MM-DD), defaults to seven days ago")
	toFlag := flag.String("to", "", "last day of the report (YYYY-MM-DD), defaults to today")
	out := flag.String("out", "", "output file, defaults to punches-<from>-<to>.xlsx")
	upload := flag.Bool("upload", false, "also upload the workbook to the report bucket")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Read(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if !cfg.Database.Enabled() {
		log.Fatal("a database is required: set DSN or PUNCHCLOCK_DB_SSM_NAME")
	}
	loc := cfg.TimeZone()

	today := time.Now().In(loc)
	from, err := parseDay(*fromFlag, today.AddDate(0, 0, -7), loc)
	if err != nil {
		log.Fatalf("invalid -from: %v", err)
	}
	to, err := parseDay(*toFlag, today, loc)
	if err != nil {
		log.Fatalf("invalid -to: %v", err)
	}
	if to.Before(from) {
		log.Fatal("-to is before -from")
	}

	ctx := context.Background()
	dsn := cfg.Database.DSN
	if dsn == "" {
		client, err := devops.NewParameterGetter(ctx)
		if err != nil {
			log.Fatal(err)
		}
		if dsn, err = devops.LookupDSN(ctx, client, cfg.Database.SSMName, cfg.Database.Name); err != nil {
			log.Fatal(err)
		}
	}

	db, err := store.Open(dsn, cfg.Database.MaxConnections, store.ParseLogLevel(cfg.Database.LogLevel))
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close(db)

	fmt.Printf("Fetching punches from %s to %s\n", from.Format(utils.DateLayout), to.Format(utils.DateLayout))
	records, err := store.NewJournal(db).Between(ctx, from, to.AddDate(0, 0, 1))
	if err != nil {
		log.Fatalf("failed to read punches: %v", err)
	}
	fmt.Printf("Found %d punches\n", len(records))

	f, err := report.BuildWorkbook(records, loc)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	name := *out
	if name == "" {
		name = fmt.Sprintf("punches-%s-%s.xlsx", from.Format(utils.DateLayout), to.Format(utils.DateLayout))
	}
	if err := f.SaveAs(name); err != nil {
		log.Fatalf("failed to save %s: %v", name, err)
	}
	fmt.Printf("Wrote %s\n", name)

	if !*upload {
		return
	}
	if cfg.Report.Bucket == "" {
		log.Fatal("-upload needs report.bucket (PUNCHCLOCK_REPORT_BUCKET)")
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		log.Fatal(err)
	}
	fs, err := filesystem.Connect(ctx, cfg.Report.Bucket)
	if err != nil {
		log.Fatal(err)
	}
	key := path.Join(cfg.Report.Prefix, path.Base(name))
	if err := fs.WriteFile(ctx, key, filesystem.XLSXContentType, &buf); err != nil {
		log.Fatalf("failed to upload report: %v", err)
	}
	fmt.Printf("Uploaded s3://%s/%s\n", cfg.Report.Bucket, key)
}

// parseDay returns local midnight of the given day, or of fallback when s is
// empty.
func parseDay(s string, fallback time.Time, loc *time.Location) (time.Time, error) {
	if s == "" {
		y, m, d := fallback.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, loc), nil
	}
	return time.ParseInLocation(utils.DateLayout, s, loc)
}
