// Package ministers holds the historical record of Slovenian governments and
// ministerial appointments, and resolves which officeholder led a ministry on
// a given date.
//
// The record is a static dataset loaded once per run. Government terms may
// overlap or leave gaps, appointment dates may be missing, and ministry names
// are free text in one or two languages; the resolver tolerates all of these.
package ministers

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/coolbeans/lawgit/pkg/types"
)

// GovernmentTerm is a period during which one cabinet held office.
type GovernmentTerm struct {
	Number        int
	Period        types.DateRange
	PrimeMinister string
	Coalition     string
	Parties       []string
	Appointments  []Appointment
}

// Contains reports whether date falls in the term, inclusive on both ends.
// Terms with an unknown boundary contain no date.
func (term GovernmentTerm) Contains(date types.Date) bool {
	return term.Period.Contains(date)
}

// Appointment is one person's tenure over one ministry within a term.
type Appointment struct {
	Ministry          MinistryName
	MinistryCode      string
	Name              string
	Tenure            types.DateRange
	Title             string
	Predecessor       string
	TerminationReason string
}

// ActiveOn reports whether the appointment covers date. Missing tenure
// boundaries are open: an appointment without dates is active throughout its
// term.
func (appointment Appointment) ActiveOn(date types.Date) bool {
	if !appointment.Tenure.Start.IsZero() && date.Before(appointment.Tenure.Start) {
		return false
	}
	if !appointment.Tenure.End.IsZero() && date.After(appointment.Tenure.End) {
		return false
	}
	return true
}

// Registry is an ordered, read-only list of government terms.
type Registry struct {
	terms []GovernmentTerm
}

// NewRegistry wraps terms in a Registry. Order is significant: TermAt
// returns the first containing term.
func NewRegistry(terms []GovernmentTerm) *Registry {
	return &Registry{terms: terms}
}

// Terms returns the terms in stored order.
func (registry *Registry) Terms() []GovernmentTerm {
	return registry.terms
}

// TermAt returns the first term in stored order whose period contains date.
func (registry *Registry) TermAt(date types.Date) (*GovernmentTerm, bool) {
	for index := range registry.terms {
		if registry.terms[index].Contains(date) {
			return &registry.terms[index], true
		}
	}
	return nil, false
}

// ActiveAt returns every appointment in office on date within the term
// containing it.
func (registry *Registry) ActiveAt(date types.Date) []Appointment {
	term, found := registry.TermAt(date)
	if !found {
		return nil
	}
	var active []Appointment
	for _, appointment := range term.Appointments {
		if appointment.ActiveOn(date) {
			active = append(active, appointment)
		}
	}
	return active
}

// Stats summarizes the dataset.
type Stats struct {
	Terms                   int
	TermsWithAppointments   int
	Appointments            int
	UniqueOfficeholders     int
	AppointmentsPerTerm     float64
	UndatedAppointmentCount int
}

// Stats computes dataset statistics.
func (registry *Registry) Stats() Stats {
	stats := Stats{Terms: len(registry.terms)}
	officeholders := make(map[string]struct{})
	for _, term := range registry.terms {
		if len(term.Appointments) > 0 {
			stats.TermsWithAppointments++
		}
		for _, appointment := range term.Appointments {
			stats.Appointments++
			officeholders[strings.ToLower(appointment.Name)] = struct{}{}
			if appointment.Tenure.Start.IsZero() && appointment.Tenure.End.IsZero() {
				stats.UndatedAppointmentCount++
			}
		}
	}
	stats.UniqueOfficeholders = len(officeholders)
	if stats.Terms > 0 {
		stats.AppointmentsPerTerm = float64(stats.Appointments) / float64(stats.Terms)
	}
	return stats
}

// dataset mirrors the on-disk document. It accepts both the curated layout
// (period, leadership, political_composition) and the flatter scraped one
// (start_date, end_date, pm). Dates are kept as strings so a single bad
// value degrades to "unknown" instead of failing the whole load.
type dataset struct {
	Governments []governmentRecord `yaml:"governments"`
}

type periodRecord struct {
	StartDate string `yaml:"start_date"`
	EndDate   string `yaml:"end_date"`
}

type governmentRecord struct {
	Number     int           `yaml:"number"`
	StartDate  string        `yaml:"start_date"`
	EndDate    string        `yaml:"end_date"`
	Period     *periodRecord `yaml:"period"`
	PM         string        `yaml:"pm"`
	Leadership struct {
		PrimeMinister struct {
			Name string `yaml:"name"`
		} `yaml:"prime_minister"`
	} `yaml:"leadership"`
	PoliticalComposition struct {
		Coalition string   `yaml:"coalition"`
		Parties   []string `yaml:"parties"`
	} `yaml:"political_composition"`
	Ministers []appointmentRecord `yaml:"ministers"`
}

type appointmentRecord struct {
	Ministry          MinistryName `yaml:"ministry"`
	MinistryCode      string       `yaml:"ministry_code"`
	Name              string       `yaml:"name"`
	StartDate         string       `yaml:"start_date"`
	EndDate           string       `yaml:"end_date"`
	Title             string       `yaml:"title"`
	Predecessor       string       `yaml:"predecessor"`
	TerminationReason string       `yaml:"termination_reason"`
}

// LoadRegistry reads a minister dataset from a JSON or YAML file.
func LoadRegistry(path string, logger *zap.Logger) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading minister dataset: %w", err)
	}
	registry, err := ParseRegistry(data, logger)
	if err != nil {
		return nil, fmt.Errorf("parsing minister dataset %s: %w", path, err)
	}
	return registry, nil
}

// ParseRegistry decodes a minister dataset. JSON documents are accepted as
// YAML. Unparseable dates are logged and treated as unknown.
func ParseRegistry(data []byte, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var document dataset
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, err
	}

	terms := make([]GovernmentTerm, 0, len(document.Governments))
	for _, record := range document.Governments {
		terms = append(terms, record.toTerm(logger))
	}

	logger.Info("loaded minister dataset",
		zap.Int("governments", len(terms)),
		zap.Int("appointments", countAppointments(terms)))
	return NewRegistry(terms), nil
}

func (record governmentRecord) toTerm(logger *zap.Logger) GovernmentTerm {
	startRaw, endRaw := record.StartDate, record.EndDate
	if record.Period != nil {
		startRaw, endRaw = record.Period.StartDate, record.Period.EndDate
	}

	context := fmt.Sprintf("government %d", record.Number)
	term := GovernmentTerm{
		Number: record.Number,
		Period: types.DateRange{
			Start: lenientDate(startRaw, context, logger),
			End:   lenientDate(endRaw, context, logger),
		},
		PrimeMinister: firstNonEmpty(record.Leadership.PrimeMinister.Name, record.PM),
		Coalition:     record.PoliticalComposition.Coalition,
		Parties:       record.PoliticalComposition.Parties,
	}
	if !term.Period.IsBounded() {
		logger.Warn("government term has an unknown boundary and will never match",
			zap.Int("government", record.Number))
	}

	for _, minister := range record.Ministers {
		appointmentContext := context + ", " + minister.Name
		term.Appointments = append(term.Appointments, Appointment{
			Ministry:     minister.Ministry,
			MinistryCode: minister.MinistryCode,
			Name:         strings.TrimSpace(minister.Name),
			Tenure: types.DateRange{
				Start: lenientDate(minister.StartDate, appointmentContext, logger),
				End:   lenientDate(minister.EndDate, appointmentContext, logger),
			},
			Title:             minister.Title,
			Predecessor:       minister.Predecessor,
			TerminationReason: minister.TerminationReason,
		})
	}
	return term
}

func lenientDate(raw, context string, logger *zap.Logger) types.Date {
	parsed, err := types.ParseDate(raw)
	if err != nil {
		logger.Warn("ignoring unparseable date", zap.String("where", context), zap.Error(err))
		return types.Date{}
	}
	return parsed
}

func countAppointments(terms []GovernmentTerm) int {
	total := 0
	for _, term := range terms {
		total += len(term.Appointments)
	}
	return total
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
