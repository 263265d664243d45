package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/gfragi/attendance-app/internal/app"
	"github.com/gfragi/attendance-app/internal/report"
	"github.com/gfragi/attendance-app/internal/timeutil"
)

// FileExporter periodically dumps all four report views for the configured
// window into CSV files. It runs with full scope: the cron job is operator
// infrastructure, not a caller.
type FileExporter struct {
	service   *app.Service
	scheduler *gocron.Scheduler
	dir       string
}

func NewFileExporter(service *app.Service) (*FileExporter, error) {
	cfg := service.Config.Export
	if cfg.Schedule == "" {
		return nil, fmt.Errorf("export schedule is not specified in config, use a cron spec like '0 6 * * *'")
	}
	if cfg.Dir == "" {
		return nil, fmt.Errorf("export dir is not specified in config")
	}

	scheduler := gocron.NewScheduler(time.UTC)
	e := &FileExporter{
		service:   service,
		scheduler: scheduler,
		dir:       cfg.Dir,
	}

	_, err := scheduler.Cron(cfg.Schedule).Do(func() {
		if err := e.Export(); err != nil {
			logger.Error.Printf("Scheduled export failed: %v", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule export: %w", err)
	}

	scheduler.StartAsync()
	return e, nil
}

// Export writes raw, grouped, pivot and rates CSVs for the trailing window.
func (e *FileExporter) Export() error {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create export dir: %w", err)
	}

	granularity, err := report.ParseGranularity(e.service.Config.Export.Granularity)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	to := timeutil.DayBucket(now, time.UTC).AddDate(0, 0, 1)
	from := to.AddDate(0, 0, -e.service.Config.Export.WindowDays)

	rows, err := e.service.Reports.Query("", nil, from, to)
	if err != nil {
		return fmt.Errorf("failed to fetch report rows: %w", err)
	}

	grouped := e.service.Reports.Bucket(rows, granularity)
	pivot := report.BuildPivot(grouped)
	rates := report.AttendanceRates(rows)

	if err := e.writeFile("checkins_raw.csv", func(f *os.File) error {
		return WriteRaw(f, rows)
	}); err != nil {
		return err
	}
	if err := e.writeFile("checkins_grouped.csv", func(f *os.File) error {
		return WriteGrouped(f, grouped)
	}); err != nil {
		return err
	}
	if err := e.writeFile("checkins_pivot.csv", func(f *os.File) error {
		return WritePivot(f, pivot)
	}); err != nil {
		return err
	}
	if err := e.writeFile("checkins_rates.csv", func(f *os.File) error {
		return WriteRates(f, rates)
	}); err != nil {
		return err
	}

	logger.Info.Printf("Exported %d check-ins to %s", len(rows), e.dir)
	return nil
}

func (e *FileExporter) writeFile(name string, write func(*os.File) error) error {
	path := filepath.Join(e.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := write(f); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func (e *FileExporter) Stop() {
	if e.scheduler != nil {
		e.scheduler.Stop()
	}
}
