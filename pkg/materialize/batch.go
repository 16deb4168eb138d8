package materialize

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ErrNoLawConverted is returned by ConvertAll when no law got a single
// commit.
var ErrNoLawConverted = errors.New("no law was converted")

// LawOutcome is the result of one law within a batch.
type LawOutcome struct {
	LawID  string
	Result *Result
	Err    error
}

// Converted reports whether at least one version of the law was committed.
func (outcome LawOutcome) Converted() bool {
	return outcome.Err == nil
}

// BatchReport summarizes a ConvertAll run.
type BatchReport struct {
	Laws      []LawOutcome
	Converted int
}

// ConvertAll converts each law in turn, typically into its own repository
// chosen by the Converter's SinkOpener. A law that fails is recorded and the
// batch moves on, except for a failed access check, which no later law could
// pass, and cancellation. Both stop the batch and are returned with the
// outcomes gathered so far. ErrNoLawConverted is returned when every law
// failed.
func (converter *Converter) ConvertAll(ctx context.Context, lawIDs []string) (*BatchReport, error) {
	batch := &BatchReport{Laws: make([]LawOutcome, 0, len(lawIDs))}

	for index, lawID := range lawIDs {
		if err := ctx.Err(); err != nil {
			return batch, err
		}

		result, err := converter.Convert(ctx, lawID)
		batch.Laws = append(batch.Laws, LawOutcome{LawID: lawID, Result: result, Err: err})
		if err == nil {
			batch.Converted++
		} else {
			converter.logger.Warn("law not converted", zap.String("law_id", lawID), zap.Error(err))
		}
		converter.logger.Info("batch progress",
			zap.Int("done", index+1),
			zap.Int("total", len(lawIDs)),
			zap.Int("converted", batch.Converted))

		if errors.Is(err, ErrAccess) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return batch, err
		}
	}

	converter.logger.Info("batch finished",
		zap.Int("converted", batch.Converted),
		zap.Int("total", len(lawIDs)))
	if batch.Converted == 0 {
		return batch, ErrNoLawConverted
	}
	return batch, nil
}

// FormatBatch renders one line per law and a closing count.
func FormatBatch(batch *BatchReport) string {
	var builder strings.Builder
	for _, outcome := range batch.Laws {
		if outcome.Converted() {
			fmt.Fprintf(&builder, "  ✓ %s: %d/%d versions committed\n",
				outcome.LawID, outcome.Result.Report.Processed, outcome.Result.Report.Attempted)
			continue
		}
		fmt.Fprintf(&builder, "  ✗ %s: %v\n", outcome.LawID, outcome.Err)
	}
	fmt.Fprintf(&builder, "Converted %d/%d laws\n", batch.Converted, len(batch.Laws))
	return builder.String()
}
