package loader

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/jlewallen/dimsum/internal/decode"
	"github.com/jlewallen/dimsum/internal/store"
)

// RowSource enumerates persisted rows. *store.Store implements it.
type RowSource interface {
	EachRow(ctx context.Context, fn func(store.Row) error) error
}

// RunIDGenerator produces the identifier stamped on a report and its logs.
type RunIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates UUIDv7 run ids.
type UUIDv7Generator struct{}

// Generate returns a new UUIDv7 string.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Options configure a load.
type Options struct {
	// Workers is the number of parallel decoders. Values below 1 mean 1.
	Workers int

	// FailFast stops the run at the first row that fails to decode.
	FailFast bool

	// Keep retains every decoded entity in Report.Entities.
	Keep bool

	// Logger receives one warning per failed row. Defaults to slog.Default().
	Logger *slog.Logger

	// RunIDs generates the report's run id. Defaults to UUIDv7Generator.
	RunIDs RunIDGenerator
}

// Failure describes one row that failed to decode.
type Failure struct {
	Key  string           `json:"key"`
	GID  uint64           `json:"gid,omitempty"`
	Kind decode.ErrorCode `json:"kind"`
	Path string           `json:"path,omitempty"`
	Err  error            `json:"-"`
}

// Message returns the failure's error text.
func (f Failure) Message() string {
	if f.Err == nil {
		return ""
	}
	return f.Err.Error()
}

// Report summarizes a load.
type Report struct {
	RunID     string `json:"run_id"`
	Processed int    `json:"processed"`
	Failed    int    `json:"failed"`

	// Tags counts decoded components by tag across successful rows.
	Tags map[string]int `json:"tags"`

	// Unrecognized counts components whose tag has no registered shape.
	Unrecognized map[string]int `json:"unrecognized"`

	Failures []Failure         `json:"failures"`
	Entities []*decode.Decoded `json:"-"`
}

// Err aggregates every failure into one error, or returns nil when all rows
// decoded.
func (r *Report) Err() error {
	var result *multierror.Error
	for _, f := range r.Failures {
		result = multierror.Append(result, f.Err)
	}
	return result.ErrorOrNil()
}

// Load decodes every row from source.
//
// The returned report is always non-nil and reflects the rows processed
// before any error. The error is non-nil when the source fails, ctx is
// cancelled, or FailFast is set and a row fails. Cancellation stops new rows
// from being handed out; decodes already in progress finish.
func Load(ctx context.Context, source RowSource, opts Options) (*Report, error) {
	workers := max(opts.Workers, 1)
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	runIDs := opts.RunIDs
	if runIDs == nil {
		runIDs = UUIDv7Generator{}
	}

	report := &Report{
		RunID:        runIDs.Generate(),
		Tags:         map[string]int{},
		Unrecognized: map[string]int{},
		Failures:     []Failure{},
		Entities:     []*decode.Decoded{},
	}
	logger = logger.With("run", report.RunID)

	decoders := make([]*decode.Decoder, workers)
	for i := range decoders {
		dec, err := decode.NewDecoder()
		if err != nil {
			return report, fmt.Errorf("create decoder: %w", err)
		}
		decoders[i] = dec
	}

	var mu sync.Mutex
	record := func(row store.Row, d *decode.Decoded, err error) {
		mu.Lock()
		defer mu.Unlock()

		report.Processed++
		if err != nil {
			f := Failure{
				Key:  row.Key,
				GID:  row.GID,
				Kind: decode.Kind(err),
				Path: decode.Path(err),
				Err:  err,
			}
			if k := decode.KeyOf(err); k != "" {
				f.Key = k
			}
			report.Failures = append(report.Failures, f)
			report.Failed++
			logger.Warn("entity failed to decode",
				"key", f.Key,
				"kind", string(f.Kind),
				"path", f.Path,
				"error", err)
			return
		}

		for tag := range d.Components {
			report.Tags[tag]++
		}
		for _, tag := range decode.Unrecognized(d.Components) {
			report.Unrecognized[tag]++
		}
		if opts.Keep {
			report.Entities = append(report.Entities, d)
		}
	}

	eg, gctx := errgroup.WithContext(ctx)
	queue := make(chan store.Row)

	eg.Go(func() error {
		defer close(queue)
		return source.EachRow(gctx, func(row store.Row) error {
			select {
			case queue <- row:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	})

	for _, dec := range decoders {
		eg.Go(func() error {
			for row := range queue {
				d, err := dec.DecodeRow(row.Key, row.Serialized)
				record(row, d, err)
				if err != nil && opts.FailFast {
					return fmt.Errorf("load aborted: %w", err)
				}
				if gctx.Err() != nil {
					return nil
				}
			}
			return nil
		})
	}

	err := eg.Wait()

	slices.SortFunc(report.Failures, func(a, b Failure) int {
		return cmp.Compare(a.Key, b.Key)
	})
	slices.SortFunc(report.Entities, func(a, b *decode.Decoded) int {
		return cmp.Compare(a.Entity.Key, b.Entity.Key)
	})

	logger.Info("load finished",
		"processed", report.Processed,
		"failed", report.Failed,
		"workers", workers)

	return report, err
}
