package materialize

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/coolbeans/lawgit/pkg/amendment"
	"github.com/coolbeans/lawgit/pkg/pisrs"
	"github.com/coolbeans/lawgit/pkg/timeline"
)

var (
	// ErrAccess marks a failed PISRS access check. The underlying cause
	// (pisrs.ErrUnauthorized, a missing probe law, a network error) stays
	// reachable with errors.Is.
	ErrAccess = errors.New("PISRS access validation failed")
	// ErrNoVersions marks a law that exists but whose consolidated versions
	// could not be listed.
	ErrNoVersions = errors.New("no consolidated versions")
	// ErrNothingCommitted is returned when a run attempted entries but
	// committed none of them.
	ErrNothingCommitted = errors.New("no versions were committed")
)

// SinkOpener opens the commit sink that receives the history of lawID. It is
// called only once the law's timeline is known, so a run that fails its
// preconditions creates no repository.
type SinkOpener func(lawID string) (CommitSink, error)

// StaticSink returns a SinkOpener that always yields sink.
func StaticSink(sink CommitSink) SinkOpener {
	return func(string) (CommitSink, error) { return sink, nil }
}

// Result is the outcome of converting one law.
type Result struct {
	Law    *pisrs.LawMetadata
	Stats  timeline.Stats
	Report *Report
	// Sink is the sink the versions were committed to, nil if the run
	// stopped before opening it.
	Sink CommitSink
}

// Converter runs the whole pipeline for one law: validate access, fetch the
// base law and its versions, name them, build the timeline and materialize
// it.
type Converter struct {
	source   pisrs.Source
	resolver MinisterResolver
	openSink SinkOpener
	options  Options
	logger   *zap.Logger
}

// NewConverter creates a Converter. options is used as a template for each
// materialization; its BaseCode is filled in from the fetched law.
func NewConverter(source pisrs.Source, resolver MinisterResolver, openSink SinkOpener, options Options, logger *zap.Logger) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{
		source:   source,
		resolver: resolver,
		openSink: openSink,
		options:  options,
		logger:   logger,
	}
}

// Convert materializes the law with the given MOPED identifier. Errors
// before the per-version loop are fatal and wrap ErrAccess, ErrNoVersions or
// ErrNoTimeline when one of those preconditions failed. After the loop,
// ErrNothingCommitted is returned if no version could be committed; the
// Result is still populated.
func (converter *Converter) Convert(ctx context.Context, lawID string) (*Result, error) {
	if err := converter.source.ValidateAccess(ctx); err != nil {
		return nil, fmt.Errorf("validating PISRS access: %w: %w", ErrAccess, err)
	}

	law, err := converter.source.GetBaseLaw(ctx, lawID)
	if err != nil {
		return nil, fmt.Errorf("fetching law %s: %w", lawID, err)
	}
	converter.logger.Info("found law",
		zap.String("law_id", law.MopedID),
		zap.String("short_code", law.ShortCode),
		zap.String("title", law.Title),
		zap.Int("amendment_events", len(law.Amendments)))

	versions, err := converter.source.GetVersions(ctx, law)
	if err != nil {
		return &Result{Law: law}, fmt.Errorf("fetching versions of %s: %w: %w", lawID, ErrNoVersions, err)
	}

	named := amendment.NewNamer(converter.logger).AssignNames(versions, law.Amendments, law.ShortCode)
	entries := timeline.NewBuilder(converter.logger).Build(named)
	result := &Result{Law: law, Stats: timeline.ComputeStats(entries, law.ShortCode)}
	if len(entries) == 0 {
		return result, fmt.Errorf("building timeline of %s: %w", lawID, ErrNoTimeline)
	}

	sink, err := converter.openSink(lawID)
	if err != nil {
		return result, fmt.Errorf("opening output for %s: %w", lawID, err)
	}
	result.Sink = sink

	options := converter.options
	options.BaseCode = law.ShortCode
	materializer := New(converter.source, converter.resolver, sink, options, converter.logger)
	report, err := materializer.Run(ctx, entries)
	result.Report = report
	if err != nil {
		return result, err
	}
	if report.Processed == 0 {
		return result, ErrNothingCommitted
	}
	return result, nil
}
