package ministers

import (
	"errors"

	"go.uber.org/zap"

	"github.com/coolbeans/lawgit/pkg/types"
)

// ErrNotFound is returned when no officeholder can be attributed to a
// ministry on a date.
var ErrNotFound = errors.New("minister not found")

// DefaultThreshold is the similarity an appointment must exceed to match.
const DefaultThreshold = 0.3

// Minister is a resolved officeholder.
type Minister struct {
	Name     string
	Ministry MinistryName
	Title    string
	Tenure   types.DateRange
	// Government is the term the officeholder served in.
	Government GovernmentSummary
	// Score is the ministry-name similarity that selected this appointment.
	Score float64
}

// GovernmentSummary is the part of a GovernmentTerm carried on a Minister.
type GovernmentSummary struct {
	Number        int
	Period        types.DateRange
	PrimeMinister string
	Coalition     string
}

// Resolver attributes ministries to officeholders. It holds no mutable
// state, so repeated calls with equal arguments return equal results.
type Resolver struct {
	registry  *Registry
	threshold float64
	logger    *zap.Logger
}

// NewResolver creates a Resolver over registry. A nil logger disables
// logging.
func NewResolver(registry *Registry, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		registry:  registry,
		threshold: DefaultThreshold,
		logger:    logger.Named("ministers"),
	}
}

// Registry returns the underlying dataset.
func (resolver *Resolver) Registry() *Registry {
	return resolver.registry
}

// Resolve returns the officeholder of ministry on date.
//
// The containing government term is the first one in stored order whose
// inclusive period contains date. Within it, every appointment in office on
// date is scored against ministry by Similarity over each of its name
// variants; the highest score wins, earlier appointments winning ties. A
// best score at or below the threshold, or no containing term, yields
// ErrNotFound.
func (resolver *Resolver) Resolve(ministry string, date types.Date) (*Minister, error) {
	term, found := resolver.registry.TermAt(date)
	if !found {
		resolver.logger.Debug("no government term contains date", zap.Stringer("date", date))
		return nil, ErrNotFound
	}

	bestIndex := -1
	bestScore := 0.0
	tied := 0
	for index, appointment := range term.Appointments {
		if !appointment.ActiveOn(date) {
			continue
		}
		score := bestVariantScore(ministry, appointment.Ministry)
		switch {
		case score > bestScore:
			bestIndex, bestScore, tied = index, score, 0
		case score == bestScore && bestIndex >= 0:
			tied++
		}
	}

	if bestIndex < 0 || bestScore <= resolver.threshold {
		resolver.logger.Debug("no appointment matches ministry",
			zap.String("ministry", ministry),
			zap.Stringer("date", date),
			zap.Int("government", term.Number),
			zap.Float64("best_score", bestScore))
		return nil, ErrNotFound
	}

	appointment := term.Appointments[bestIndex]
	if tied > 0 {
		resolver.logger.Info("ambiguous ministry match, keeping first candidate",
			zap.String("ministry", ministry),
			zap.Stringer("date", date),
			zap.String("chosen", appointment.Name),
			zap.Int("tied_candidates", tied),
			zap.Float64("score", bestScore))
	}

	return &Minister{
		Name:     appointment.Name,
		Ministry: appointment.Ministry,
		Title:    appointment.Title,
		Tenure:   appointment.Tenure,
		Government: GovernmentSummary{
			Number:        term.Number,
			Period:        term.Period,
			PrimeMinister: term.PrimeMinister,
			Coalition:     term.Coalition,
		},
		Score: bestScore,
	}, nil
}

// TermAt returns the government term containing date.
func (resolver *Resolver) TermAt(date types.Date) (*GovernmentTerm, bool) {
	return resolver.registry.TermAt(date)
}

// ActiveAt lists the appointments in office on date.
func (resolver *Resolver) ActiveAt(date types.Date) []Appointment {
	return resolver.registry.ActiveAt(date)
}

// Stats summarizes the underlying dataset.
func (resolver *Resolver) Stats() Stats {
	return resolver.registry.Stats()
}

func bestVariantScore(query string, ministry MinistryName) float64 {
	best := 0.0
	for _, variant := range ministry.Variants() {
		if score := Similarity(query, variant); score > best {
			best = score
		}
	}
	return best
}
