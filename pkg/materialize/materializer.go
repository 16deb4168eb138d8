// Package materialize replays a law's version timeline into a commit sink:
// one commit per version, authored by the minister who prepared it and dated
// on its adoption.
package materialize

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/coolbeans/lawgit/pkg/content"
	"github.com/coolbeans/lawgit/pkg/gitsink"
	"github.com/coolbeans/lawgit/pkg/ministers"
	"github.com/coolbeans/lawgit/pkg/timeline"
	"github.com/coolbeans/lawgit/pkg/types"
)

// ErrNoTimeline is returned when there is nothing to materialize.
var ErrNoTimeline = errors.New("no versions to materialize")

// ContentSource fetches the raw HTML of a version.
type ContentSource interface {
	GetContent(ctx context.Context, versionID string) (string, error)
}

// MinisterResolver attributes a ministry to its officeholder on a date.
type MinisterResolver interface {
	Resolve(ministry string, date types.Date) (*ministers.Minister, error)
}

// CommitSink persists one version of the law file.
type CommitSink interface {
	CommitFile(ctx context.Context, filename string, content []byte, message string, identity gitsink.AuthorIdentity, when time.Time) (string, error)
}

// Options configures a Materializer.
type Options struct {
	// BaseCode is the law's short code; every version is written to
	// Filename(BaseCode).
	BaseCode string
	// EmailDomain is used to synthesize author emails.
	EmailDomain string
	// Progress receives a progress bar. Nil disables it.
	Progress io.Writer
}

// Materializer commits timeline entries in order.
type Materializer struct {
	source   ContentSource
	resolver MinisterResolver
	sink     CommitSink
	options  Options
	logger   *zap.Logger
}

// New creates a Materializer. A nil logger disables logging.
func New(source ContentSource, resolver MinisterResolver, sink CommitSink, options Options, logger *zap.Logger) *Materializer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if options.EmailDomain == "" {
		options.EmailDomain = gitsink.DefaultEmailDomain
	}
	return &Materializer{
		source:   source,
		resolver: resolver,
		sink:     sink,
		options:  options,
		logger:   logger.Named("materialize"),
	}
}

// Filename returns the file all versions of the law with baseCode are
// written to. Path separators are replaced so the file stays at the
// repository root.
func Filename(baseCode string) string {
	return strings.NewReplacer("/", "-", `\`, "-").Replace(baseCode) + ".html"
}

// Run materializes entries strictly in order. A failure on one entry skips
// that entry and the run continues. Cancelling ctx stops the run before the
// next entry; the report then covers the entries attempted so far and the
// context error is returned alongside it.
func (materializer *Materializer) Run(ctx context.Context, entries []timeline.Entry) (*Report, error) {
	if len(entries) == 0 {
		return nil, ErrNoTimeline
	}

	bar := materializer.progressBar(len(entries))
	report := &Report{}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			materializer.logger.Warn("run interrupted",
				zap.Int("attempted", report.Attempted),
				zap.Int("remaining", len(entries)-report.Attempted))
			return report, err
		}

		outcome := materializer.materialize(ctx, entry)
		report.record(outcome)
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	materializer.logger.Info("materialization finished",
		zap.Int("attempted", report.Attempted),
		zap.Int("processed", report.Processed),
		zap.Int("skipped", report.Skipped))
	return report, nil
}

func (materializer *Materializer) materialize(ctx context.Context, entry timeline.Entry) Outcome {
	outcome := Outcome{
		VersionID:     entry.VersionID,
		AmendmentName: entry.AmendmentName,
		AdoptionDate:  entry.AdoptionDate,
	}
	logger := materializer.logger.With(
		zap.String("version_id", entry.VersionID),
		zap.String("amendment", entry.AmendmentName),
		zap.Stringer("adopted", entry.AdoptionDate))

	raw, err := materializer.source.GetContent(ctx, entry.VersionID)
	if err == nil && strings.TrimSpace(raw) == "" {
		err = content.ErrEmpty
	}
	if err != nil {
		logger.Warn("skipping version without content", zap.Error(err))
		return outcome.skip(SkipMissingContent, err)
	}

	normalized, err := content.Normalize(raw)
	if err != nil {
		logger.Warn("skipping version with unusable content", zap.Error(err))
		return outcome.skip(SkipMalformedContent, err)
	}

	minister, err := materializer.resolver.Resolve(entry.ResponsibleMinistry, entry.AdoptionDate)
	if err != nil {
		logger.Warn("skipping version without a minister",
			zap.String("ministry", entry.ResponsibleMinistry), zap.Error(err))
		return outcome.skip(SkipNoMinister, err)
	}
	outcome.Minister = minister.Name

	identity := gitsink.NewIdentity(minister.Name, materializer.options.EmailDomain)
	hash, err := materializer.sink.CommitFile(ctx,
		Filename(materializer.options.BaseCode),
		[]byte(normalized),
		CommitMessage(entry, minister),
		identity,
		entry.AdoptionDate.ToTime())
	if err != nil {
		logger.Warn("skipping version that could not be committed", zap.Error(err))
		return outcome.skip(SkipCommitFailed, err)
	}

	logger.Info("committed version", zap.String("minister", minister.Name), zap.String("commit", hash))
	outcome.Status = StatusCommitted
	outcome.Commit = hash
	return outcome
}

func (materializer *Materializer) progressBar(total int) *progressbar.ProgressBar {
	if materializer.options.Progress == nil {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(materializer.options.Progress),
		progressbar.OptionSetDescription("committing "+materializer.options.BaseCode),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish())
}

// CommitMessage formats the message for entry. The first line is
// "{amendment} - {version} - {title}"; the second summarizes who prepared
// and adopted the version and the government in office, listing only the
// parts that are known.
func CommitMessage(entry timeline.Entry, minister *ministers.Minister) string {
	subject := fmt.Sprintf("%s - %s - %s", entry.AmendmentName, entry.VersionID, entry.Title)

	var parts []string
	if minister != nil && minister.Name != "" {
		parts = append(parts, "Minister: "+minister.Name)
	}
	if entry.ResponsibleMinistry != "" {
		parts = append(parts, "Prepared by: "+entry.ResponsibleMinistry)
	}
	if entry.AdoptingBody != "" {
		parts = append(parts, "Adopted by: "+entry.AdoptingBody)
	}
	if minister != nil {
		government := minister.Government
		if government.PrimeMinister != "" {
			parts = append(parts, "PM: "+government.PrimeMinister)
		}
		if government.Number > 0 {
			parts = append(parts, fmt.Sprintf("Gov: %d (%s)", government.Number, government.Period))
		}
	}

	if len(parts) == 0 {
		return subject
	}
	return subject + "\n" + strings.Join(parts, " | ")
}
