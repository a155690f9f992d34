package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strconv"

	"github.com/siherrmann/visualgenome/helper"
	"github.com/siherrmann/visualgenome/model"
)

// Transformer runs the one time batch transforms over a monolithic corpus.
// It keeps no state between calls.
type Transformer struct {
	log *slog.Logger
}

// NewTransformer creates a Transformer. A nil logger discards output.
func NewTransformer(logger *slog.Logger) *Transformer {
	if logger == nil {
		logger = helper.NewDiscardLogger()
	}
	return &Transformer{log: logger}
}

// recordID is the part of a corpus record identifying its image.
type recordID struct {
	ImageID *int `json:"image_id"`
	ID      *int `json:"id"`
}

func imageIDOf(record json.RawMessage) (int, error) {
	var id recordID
	err := json.Unmarshal(record, &id)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", model.ErrMalformedRecord, err)
	}
	if id.ImageID != nil {
		return *id.ImageID, nil
	}
	if id.ID != nil {
		return *id.ID, nil
	}
	return 0, fmt.Errorf("%w: corpus record without image_id", model.ErrMalformedRecord)
}

// SplitByImage writes every record of the graphs file to
// outputDir/<imageId>.json, overwriting existing files. The corpus is
// released before returning. It returns the number of files written.
// A cancelled context stops the split between images and leaves the
// files written so far.
func (t *Transformer) SplitByImage(ctx context.Context, graphsFile string, outputDir string) (int, error) {
	err := os.MkdirAll(outputDir, 0o755)
	if err != nil {
		return 0, helper.NewError("create output dir", err)
	}

	var records []json.RawMessage
	err = helper.ReadJSONFile(graphsFile, &records)
	if err != nil {
		return 0, helper.NewError("read corpus", err)
	}
	defer release()

	t.log.Info("Splitting corpus", slog.String("file", graphsFile), slog.Int("images", len(records)))

	written := 0
	for i := range records {
		if err := ctx.Err(); err != nil {
			return written, helper.NewError("split by image", err)
		}

		imageID, err := imageIDOf(records[i])
		if err != nil {
			return written, helper.NewError(fmt.Sprintf("record %d", i), err)
		}

		path := filepath.Join(outputDir, strconv.Itoa(imageID)+".json")
		err = os.WriteFile(path, records[i], 0o644)
		if err != nil {
			return written, helper.NewError("write image file", err)
		}
		written++

		// Drop the record as soon as it is on disk.
		records[i] = nil
	}

	t.log.Info("Split corpus", slog.String("dir", outputDir), slog.Int("files", written))

	return written, nil
}

// release returns the memory of a dropped corpus to the OS.
func release() {
	runtime.GC()
	debug.FreeOSMemory()
}
