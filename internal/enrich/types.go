// Package enrich runs the image enrichment pipeline: candidate selection,
// bounded-parallel extraction and download, and serialized write-back.
package enrich

import (
	"context"

	"github.com/discflight/discimg/internal/catalog"
)

// Task is one ephemeral unit of work wrapping an eligible disc. It is
// created from the candidate snapshot, consumed by the dispatcher, and
// discarded once its outcome has been applied.
type Task struct {
	DiscID       int64
	Manufacturer string
	Model        string
	PageURL      string
	Filename     string
}

// Kind tags the result of one task's pipeline run.
type Kind int

// Outcome kinds, one per pipeline stage that can terminate a task.
const (
	Success Kind = iota
	ExtractFailed
	FetchFailed
	DecodeFailed
	PersistFailed
)

// Stage names the pipeline stage a kind belongs to, for logs and the ledger.
func (k Kind) Stage() string {
	switch k {
	case Success:
		return "complete"
	case ExtractFailed:
		return "extract"
	case FetchFailed:
		return "fetch"
	case DecodeFailed:
		return "decode"
	case PersistFailed:
		return "persist"
	default:
		return "unknown"
	}
}

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case ExtractFailed:
		return "extract_failed"
	case FetchFailed:
		return "fetch_failed"
	case DecodeFailed:
		return "decode_failed"
	case PersistFailed:
		return "persist_failed"
	default:
		return "unknown"
	}
}

// Outcome is the tagged result of one task, delivered exactly once.
type Outcome struct {
	Task Task
	Kind Kind
	PNG  []byte
	Err  error
}

// Summary is the aggregate report of one run. It is only valid once every
// dispatched task has delivered its outcome.
type Summary struct {
	Eligible  int
	Succeeded int
	Failed    int
}

// PageExtractor locates the image reference on a product page.
type PageExtractor interface {
	ImageURL(ctx context.Context, pageURL string) (string, error)
}

// ImageFetcher retrieves raw image bytes.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Catalog is the slice of the store the pipeline needs.
type Catalog interface {
	EnsureSchema(ctx context.Context) error
	PendingDiscs(ctx context.Context) ([]catalog.Disc, error)
	SetImage(ctx context.Context, id int64, png []byte) error
	RecordAttempt(ctx context.Context, a catalog.Attempt) error
}

// BackupStore persists one backup copy per enriched disc.
type BackupStore interface {
	Put(name string, data []byte) (string, error)
}
