// Package timeline turns named law versions into the ordered queue of entries
// the materializer commits, dropping versions that lack the metadata a commit
// needs.
package timeline

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/coolbeans/lawgit/pkg/pisrs"
	"github.com/coolbeans/lawgit/pkg/types"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Entry is one version queued for materialization.
type Entry struct {
	VersionID           string     `validate:"required"`
	SequenceNumber      int        `validate:"gte=1"`
	AmendmentName       string     `validate:"required"`
	Title               string     `validate:"required"`
	AdoptionDate        types.Date `validate:"required"`
	ResponsibleMinistry string     `validate:"required"`
	AdoptingBody        string
}

// FromVersion converts a named version into an Entry.
func FromVersion(version pisrs.LawVersion) Entry {
	return Entry{
		VersionID:           strings.TrimSpace(version.VersionID),
		SequenceNumber:      version.SequenceNumber,
		AmendmentName:       strings.TrimSpace(version.AmendmentName),
		Title:               strings.TrimSpace(version.Title),
		AdoptionDate:        version.AdoptionDate,
		ResponsibleMinistry: strings.TrimSpace(version.ResponsibleMinistry),
		AdoptingBody:        strings.TrimSpace(version.AdoptingBody),
	}
}

// Validate reports which required fields of the entry are missing.
func (entry Entry) Validate() error {
	err := validate.Struct(entry)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}
	missing := make([]string, 0, len(fieldErrors))
	for _, fieldError := range fieldErrors {
		missing = append(missing, fieldError.StructField())
	}
	return fmt.Errorf("invalid entry: %s", strings.Join(missing, ", "))
}

// Builder builds timelines.
type Builder struct {
	logger *zap.Logger
}

// NewBuilder creates a Builder. A nil logger disables logging.
func NewBuilder(logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{logger: logger.Named("timeline")}
}

// Build validates versions and returns them as entries sorted by adoption
// date ascending. Versions failing validation are dropped with a warning.
// Entries with equal dates keep their input order.
func (builder *Builder) Build(versions []pisrs.LawVersion) []Entry {
	entries := make([]Entry, 0, len(versions))
	for _, version := range versions {
		entry := FromVersion(version)
		if err := entry.Validate(); err != nil {
			builder.logger.Warn("dropping version from timeline",
				zap.String("version_id", version.VersionID),
				zap.Int("sequence", version.SequenceNumber),
				zap.Error(err))
			continue
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].AdoptionDate.Before(entries[j].AdoptionDate)
	})

	builder.logger.Info("built timeline",
		zap.Int("versions", len(versions)),
		zap.Int("entries", len(entries)))
	return entries
}

// Stats summarizes a timeline.
type Stats struct {
	Entries int
	// First and Last are the earliest and latest adoption dates.
	First types.Date
	Last  types.Date
	// Amendments counts entries named differently from the base code.
	Amendments int
	Ministries []string
}

// ComputeStats summarizes entries. Ministries are listed in order of first
// appearance.
func ComputeStats(entries []Entry, baseCode string) Stats {
	stats := Stats{Entries: len(entries)}
	seen := make(map[string]struct{})
	for _, entry := range entries {
		if stats.First.IsZero() || entry.AdoptionDate.Before(stats.First) {
			stats.First = entry.AdoptionDate
		}
		if entry.AdoptionDate.After(stats.Last) {
			stats.Last = entry.AdoptionDate
		}
		if entry.AmendmentName != baseCode {
			stats.Amendments++
		}
		if _, ok := seen[entry.ResponsibleMinistry]; !ok {
			seen[entry.ResponsibleMinistry] = struct{}{}
			stats.Ministries = append(stats.Ministries, entry.ResponsibleMinistry)
		}
	}
	return stats
}
