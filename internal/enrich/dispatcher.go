package enrich

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/discflight/discimg/internal/imaging"
)

const defaultWorkers = 10

// Dispatcher fans tasks out to a bounded pool of pipeline workers. The
// bound protects the remote sites and local resources; it never grows with
// the candidate set.
type Dispatcher struct {
	extractor PageExtractor
	fetcher   ImageFetcher
	normalize func([]byte) ([]byte, error)
	workers   int
	logger    *zap.Logger
}

// NewDispatcher builds a Dispatcher; workers caps simultaneously in-flight
// tasks.
func NewDispatcher(extractor PageExtractor, fetcher ImageFetcher, workers int, logger *zap.Logger) *Dispatcher {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		extractor: extractor,
		fetcher:   fetcher,
		normalize: imaging.Normalize,
		workers:   workers,
		logger:    logger,
	}
}

// Run executes one pipeline instance per task and streams outcomes in
// completion order. The returned channel closes once every task has
// delivered exactly one outcome.
func (d *Dispatcher) Run(ctx context.Context, tasks []Task) <-chan Outcome {
	queue := make(chan Task)
	outcomes := make(chan Outcome, len(tasks))

	var wg sync.WaitGroup
	for range d.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range queue {
				outcomes <- d.runTask(ctx, task)
			}
		}()
	}

	go func() {
		for _, task := range tasks {
			queue <- task
		}
		close(queue)
		wg.Wait()
		close(outcomes)
	}()

	return outcomes
}

// runTask walks one disc through extract, fetch and decode. Failures are
// converted to outcomes at this boundary and never escape the task, so one
// bad disc cannot abort its siblings.
func (d *Dispatcher) runTask(ctx context.Context, task Task) (out Outcome) {
	stage := ExtractFailed
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Task: task, Kind: stage, Err: fmt.Errorf("recovered panic: %v", r)}
		}
	}()

	d.logger.Debug("processing disc",
		zap.Int64("disc_id", task.DiscID),
		zap.String("manufacturer", task.Manufacturer),
		zap.String("model", task.Model),
	)

	imgURL, err := d.extractor.ImageURL(ctx, task.PageURL)
	if err != nil {
		return Outcome{Task: task, Kind: ExtractFailed, Err: err}
	}

	stage = FetchFailed
	raw, err := d.fetcher.Fetch(ctx, imgURL)
	if err != nil {
		return Outcome{Task: task, Kind: FetchFailed, Err: err}
	}

	stage = DecodeFailed
	png, err := d.normalize(raw)
	if err != nil {
		return Outcome{Task: task, Kind: DecodeFailed, Err: err}
	}

	return Outcome{Task: task, Kind: Success, PNG: png}
}
