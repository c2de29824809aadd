package sink

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/edgeadmin/edgeadmin/log"
)

// fileStore streams the entities into one JSON array.
type fileStore struct {
	file  *os.File
	w     *bufio.Writer
	count int
	log   log.Logger
}

func newFile(path string, log log.Logger) (*fileStore, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("sink: failed to create %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	if _, err = w.WriteString("["); err != nil {
		_ = f.Close()
		return nil, err
	}
	log.Reportf("exporting to %s", path)
	return &fileStore{file: f, w: w, log: log}, nil
}

func (f *fileStore) Write(_ context.Context, _ string, entities []map[string]any) error {
	for _, e := range entities {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("sink: failed to encode entity: %w", err)
		}
		if f.count > 0 {
			if err = f.w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err = f.w.Write(data); err != nil {
			return err
		}
		f.count++
	}
	return nil
}

func (f *fileStore) Close() error {
	if _, err := f.w.WriteString("]\n"); err != nil {
		_ = f.file.Close()
		return err
	}
	if err := f.w.Flush(); err != nil {
		_ = f.file.Close()
		return err
	}
	f.log.Debugf("%d entities written to %s", f.count, f.file.Name())
	return f.file.Close()
}
