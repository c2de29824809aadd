package baas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/edgeadmin/edgeadmin/diag/metrics"
	"github.com/edgeadmin/edgeadmin/internal/utils"
	"github.com/edgeadmin/edgeadmin/log"
	"github.com/edgeadmin/edgeadmin/prompt"
	"github.com/edgeadmin/edgeadmin/sink"
)

const (
	DefaultDataDir = "data"
	BatchSize      = 25
	elapsedEvery   = 100 * BatchSize
)

// stripped before an entity is loaded into a collection
var systemProperties = []string{"metadata", "created", "modified", "type", "activated"}

var ErrAborted = errors.New("baas: aborted by the operator")

type Api interface {
	GetPage(ctx context.Context, collection string, cursor string) (*Page, error)
	CreateEntities(ctx context.Context, collection string, entities []map[string]any) error
	DeleteEntity(ctx context.Context, collection string, uuid string) error
}

type DeleteResult struct {
	Count  int
	Failed int
	Pages  int
}

type Tool struct {
	api     Api
	prompt  prompt.Prompter
	out     io.Writer
	metrics metrics.Reporter
	log     log.Logger
	now     func() time.Time
}

func NewTool(api Api, p prompt.Prompter, out io.Writer, metricsReporter metrics.Reporter, log log.Logger) *Tool {
	return &Tool{
		api:     api,
		prompt:  p,
		out:     out,
		metrics: metricsReporter,
		log:     log.WithPrefix("baas"),
		now:     time.Now,
	}
}

func (t *Tool) progress(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(t.out, "%s %s\n", utils.LogTimestamp(t.now()), fmt.Sprintf(format, args...))
}

func (t *Tool) count(n int, command string, outcome string) {
	if t.metrics != nil && n > 0 {
		t.metrics.AddProcessedItems(n, command, outcome)
	}
}

// Load uploads every <collection>.json file of dir into the collection named after it.
// It returns the number of entities sent.
func (t *Tool) Load(ctx context.Context, dir string) (int, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return 0, err
	}
	sort.Strings(files)
	t.progress("start")
	start := t.now()
	total := 0
	batch := 0
	for _, file := range files {
		collection := strings.TrimSuffix(filepath.Base(file), ".json")
		entities, err := readEntities(file)
		if err != nil {
			return total, err
		}
		_, _ = fmt.Fprintf(t.out, "uploading %s\n", collection)
		for i := 0; i < len(entities); i += BatchSize {
			chunk := entities[i:min(i+BatchSize, len(entities))]
			for _, e := range chunk {
				for _, p := range systemProperties {
					delete(e, p)
				}
			}
			batch++
			t.progress("batch %d", batch)
			if err = t.api.CreateEntities(ctx, collection, chunk); err != nil {
				t.count(len(chunk), "baas-load", metrics.OutcomeFailed)
				return total, err
			}
			t.count(len(chunk), "baas-load", metrics.OutcomeOk)
			before := total
			total += len(chunk)
			if total/elapsedEvery > before/elapsedEvery {
				t.progress(" %d elapsed %s", total, utils.ElapsedToHHMMSS(t.now().Sub(start)))
			}
		}
	}
	t.progress("finis")
	t.progress("elapsed %s", utils.ElapsedToHHMMSS(t.now().Sub(start)))
	return total, nil
}

func readEntities(file string) ([]map[string]any, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("baas: failed to read %s: %w", file, err)
	}
	var entities []map[string]any
	if err = json.Unmarshal(data, &entities); err != nil {
		return nil, fmt.Errorf("baas: %s must hold a JSON array of entities: %w", file, err)
	}
	return entities, nil
}

// DeleteAll removes every entity of collection after the operator confirmed.
// A failed delete is counted and the walk goes on.
func (t *Tool) DeleteAll(ctx context.Context, collection string) (DeleteResult, error) {
	_, _ = fmt.Fprintf(t.out, "delete all items from collection: %s\n** YOU WILL LOSE DATA.\n", collection)
	ok, err := t.prompt.Confirm("Are you sure?")
	if err != nil {
		return DeleteResult{}, err
	}
	if !ok {
		_, _ = fmt.Fprintln(t.out, "abort.")
		return DeleteResult{}, ErrAborted
	}
	t.progress("start")
	start := t.now()
	var result DeleteResult
	err = t.forEachPage(ctx, collection, &result.Pages, func(entities []map[string]any) error {
		for _, e := range entities {
			result.Count++
			id, _ := e["uuid"].(string)
			if id == "" {
				result.Failed++
				t.log.Warnf("an entity of %s has no uuid", collection)
				continue
			}
			if err := t.api.DeleteEntity(ctx, collection, id); err != nil {
				result.Failed++
				t.log.Warnf("failed to delete %s: %s", id, err)
			}
		}
		return nil
	})
	t.count(result.Count-result.Failed, "baas-delete", metrics.OutcomeOk)
	t.count(result.Failed, "baas-delete", metrics.OutcomeFailed)
	t.progress("finis")
	t.progress("duration: %s", utils.ElapsedToHHMMSS(t.now().Sub(start)))
	_, _ = fmt.Fprintf(t.out, "deleted %d, failed %d\n", result.Count-result.Failed, result.Failed)
	return result, err
}

// ExportAll writes every entity of collection into s after the operator confirmed.
func (t *Tool) ExportAll(ctx context.Context, collection string, s sink.Sink) (int, error) {
	ok, err := t.prompt.Confirm("Continue?")
	if err != nil {
		return 0, err
	}
	if !ok {
		_, _ = fmt.Fprintln(t.out, "abort.")
		return 0, ErrAborted
	}
	t.progress("start")
	start := t.now()
	total := 0
	pages := 0
	err = t.forEachPage(ctx, collection, &pages, func(entities []map[string]any) error {
		if err := s.Write(ctx, collection, entities); err != nil {
			t.count(len(entities), "baas-export", metrics.OutcomeFailed)
			return err
		}
		total += len(entities)
		t.count(len(entities), "baas-export", metrics.OutcomeOk)
		return nil
	})
	if err != nil {
		return total, err
	}
	t.progress("finis")
	t.progress("duration: %s", utils.ElapsedToHHMMSS(t.now().Sub(start)))
	return total, nil
}

// forEachPage follows the cursor of collection; pages counts the pages after the first one.
func (t *Tool) forEachPage(ctx context.Context, collection string, pages *int, f func([]map[string]any) error) error {
	cursor := ""
	for {
		page, err := t.api.GetPage(ctx, collection, cursor)
		if err != nil {
			if cursor != "" {
				return fmt.Errorf("baas: could not get next page of entities: %w", err)
			}
			return err
		}
		if err = f(page.Entities); err != nil {
			return err
		}
		if page.Cursor == "" {
			return nil
		}
		cursor = page.Cursor
		*pages++
		t.progress("page %d", *pages)
	}
}
