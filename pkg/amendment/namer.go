// Package amendment assigns short display names to the consolidated versions
// of a law following the Slovenian amendment-lettering convention: the
// original enactment keeps the base code ("ZDoh-2") and each later version is
// named after the amendment that produced it ("ZDoh-2A", "ZDoh-2B", ...).
//
// PISRS records consolidated versions and amendment acts in two unrelated
// lists with no shared key. The namer aligns them by position, assuming both
// lists advance in lockstep with a one-entry skew for the original
// enactment. The alignment is best-effort: nothing in the source data
// guarantees it, and it is not strengthened here.
package amendment

import (
	"strings"

	"go.uber.org/zap"

	"github.com/coolbeans/lawgit/pkg/pisrs"
)

// alphabetSize is the number of letters used by the fallback suffixes.
const alphabetSize = 26

// Namer assigns amendment names to law versions.
type Namer struct {
	logger *zap.Logger
}

// NewNamer creates a Namer. A nil logger disables logging.
func NewNamer(logger *zap.Logger) *Namer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Namer{logger: logger.Named("amendment")}
}

// AssignNames returns a copy of versions with AmendmentName set on every
// element. Versions are identified by SequenceNumber:
//
//   - sequence 1 (the original enactment) receives baseCode;
//   - sequence n > 1 receives the short code parsed from events[n-2], if
//     that event exists and its name ends in a parenthesized code;
//   - otherwise baseCode + FallbackSuffix(n).
//
// Every version receives a non-empty name. Distinctness is not guaranteed: a
// parsed code may coincide with a fallback name of another version. Such
// collisions are logged and left as they are.
func (namer *Namer) AssignNames(versions []pisrs.LawVersion, events []pisrs.AmendmentEvent, baseCode string) []pisrs.LawVersion {
	named := make([]pisrs.LawVersion, len(versions))
	copy(named, versions)

	seen := make(map[string]string, len(named))
	for index := range named {
		version := &named[index]
		version.AmendmentName = NameFor(version.SequenceNumber, events, baseCode)

		if previous, collides := seen[version.AmendmentName]; collides {
			namer.logger.Info("amendment name collision",
				zap.String("name", version.AmendmentName),
				zap.String("version_id", version.VersionID),
				zap.String("previous_version_id", previous))
		} else {
			seen[version.AmendmentName] = version.VersionID
		}

		namer.logger.Debug("assigned amendment name",
			zap.String("version_id", version.VersionID),
			zap.Int("sequence", version.SequenceNumber),
			zap.String("name", version.AmendmentName))
	}
	return named
}

// NameFor computes the amendment name of the version with the given
// sequence number. Sequence numbers below 1 are treated as the original
// enactment.
func NameFor(sequenceNumber int, events []pisrs.AmendmentEvent, baseCode string) string {
	if sequenceNumber <= 1 {
		return baseCode
	}

	// The original enactment has no amendment event, hence the skew of two
	// (one for 1-based numbering, one for the enactment).
	eventIndex := sequenceNumber - 2
	if eventIndex < len(events) {
		if code, ok := ParseShortCode(events[eventIndex].Name); ok {
			return code
		}
	}

	return baseCode + FallbackSuffix(sequenceNumber)
}

// ParseShortCode extracts the short code from a legislative title: the text
// between the last "(" and the ")" that follows it, trimmed. It reports false
// when there is no such non-empty parenthesized suffix.
//
//	ParseShortCode("Zakon o spremembah Zakona o dohodnini (ZDoh-2A)") == "ZDoh-2A", true
func ParseShortCode(title string) (string, bool) {
	open := strings.LastIndex(title, "(")
	if open < 0 {
		return "", false
	}
	closing := strings.Index(title[open+1:], ")")
	if closing < 0 {
		return "", false
	}
	code := strings.TrimSpace(title[open+1 : open+1+closing])
	if code == "" {
		return "", false
	}
	return code, true
}

// FallbackSuffix returns the letter suffix for a version that has no parsed
// amendment code. With k = sequenceNumber - 2:
//
//	k < 26:  one letter, 'A'+k                      (2→"A", 3→"B", 27→"Z")
//	k >= 26: 'A'+(k-26)/26 followed by 'A'+(k-26)%26 (28→"AA", 29→"AB", 54→"BA")
//
// A is the zero digit in both positions and the suffix never grows past two
// characters, so beyond "ZZ" (sequence 703) the first character leaves the
// alphabet. Names already published in commit histories depend on this
// exact mapping; it must not be switched to bijective spreadsheet-column
// numbering. Sequence numbers below 2 yield "".
func FallbackSuffix(sequenceNumber int) string {
	letterIndex := sequenceNumber - 2
	if letterIndex < 0 {
		return ""
	}
	if letterIndex < alphabetSize {
		return string(rune('A' + letterIndex))
	}
	overflow := letterIndex - alphabetSize
	first := rune('A' + overflow/alphabetSize)
	second := rune('A' + overflow%alphabetSize)
	return string([]rune{first, second})
}
