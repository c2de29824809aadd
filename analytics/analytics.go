package analytics

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/edgeadmin/edgeadmin/edge"
	"github.com/edgeadmin/edgeadmin/internal/utils"
	"github.com/edgeadmin/edgeadmin/log"
)

const (
	DefaultDimension = "apis"
	DefaultQuery     = "sum(message_count)"
	DefaultTimeUnit  = "hour"

	timeLayout    = "01/02/2006 15:04"
	vbaEpochDays  = 25569
	secondsPerDay = 86400
)

var hasClock = regexp.MustCompile(`\d{1,2}:\d{2}$`)

type StatsApi interface {
	QueryStats(ctx context.Context, q edge.StatsQuery) (*edge.Stats, error)
}

type Options struct {
	Environment string
	Dimension   string
	Query       string
	Start       string
	Finish      string
	TimeUnit    string
	OutputDir   string
}

type Exporter struct {
	api StatsApi
	log log.Logger
	now func() time.Time
}

func NewExporter(api StatsApi, log log.Logger) *Exporter {
	return &Exporter{api: api, log: log.WithPrefix("analytics"), now: time.Now}
}

// withDefaults fills the unset options; the time range defaults to yesterday.
func (e *Exporter) withDefaults(opts Options) (Options, error) {
	if opts.Environment == "" {
		return opts, errors.New("analytics: an environment is required")
	}
	if opts.Dimension == "" {
		opts.Dimension = DefaultDimension
	}
	if opts.Query == "" {
		opts.Query = DefaultQuery
	}
	if opts.TimeUnit == "" {
		opts.TimeUnit = DefaultTimeUnit
	}
	if opts.OutputDir == "" {
		opts.OutputDir = os.TempDir()
	}
	now := e.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if opts.Start == "" {
		opts.Start = today.AddDate(0, 0, -1).Format(timeLayout)
	}
	if opts.Finish == "" {
		opts.Finish = today.Format(timeLayout)
	}
	var err error
	if opts.Start, err = normalizeTime(opts.Start); err != nil {
		return opts, err
	}
	if opts.Finish, err = normalizeTime(opts.Finish); err != nil {
		return opts, err
	}
	return opts, nil
}

func normalizeTime(s string) (string, error) {
	if !hasClock.MatchString(s) {
		s += " 00:00"
	}
	if _, err := time.Parse("1/2/2006 15:04", s); err != nil {
		return "", fmt.Errorf("analytics: invalid time %q, expected MM/DD/YYYY [HH:MM]", s)
	}
	return s, nil
}

// Export queries the stats and writes one CSV file per dimension value; it returns the file names.
func (e *Exporter) Export(ctx context.Context, opts Options) ([]string, error) {
	opts, err := e.withDefaults(opts)
	if err != nil {
		return nil, err
	}
	e.log.Infof("querying %s of %s in %s from %s to %s", opts.Query, opts.Dimension, opts.Environment, opts.Start, opts.Finish)
	stats, err := e.api.QueryStats(ctx, edge.StatsQuery{
		Environment: opts.Environment,
		Dimension:   opts.Dimension,
		Select:      opts.Query,
		TimeRange:   opts.Start + "~" + opts.Finish,
		TimeUnit:    opts.TimeUnit,
	})
	if err != nil {
		return nil, err
	}
	if len(stats.Environments) == 0 {
		e.log.Warnf("no analytics returned for %s", opts.Environment)
		return []string{}, nil
	}

	prefix := filepath.Join(opts.OutputDir, "apigee-analytics-"+utils.Stamp(e.now())+"-")
	files := make([]string, 0, len(stats.Environments[0].Dimensions))
	for _, dim := range stats.Environments[0].Dimensions {
		file := prefix + dim.Name + ".csv"
		if err = os.WriteFile(file, csvOf(dim), 0644); err != nil {
			return files, fmt.Errorf("analytics: failed to write %s: %w", file, err)
		}
		files = append(files, file)
	}
	return files, nil
}

func csvOf(dim edge.StatsDimension) []byte {
	var buf bytes.Buffer
	for _, metric := range dim.Metrics {
		for _, v := range metric.Values {
			_, _ = fmt.Fprintf(&buf, "    %.12f,%d\n", VbaTime(v.Timestamp), int64(math.Floor(float64(v.Value))))
		}
	}
	return buf.Bytes()
}

// VbaTime converts epoch milliseconds to a spreadsheet serial date.
func VbaTime(ms int64) float64 {
	return vbaEpochDays + float64(ms)/1000/secondsPerDay
}
