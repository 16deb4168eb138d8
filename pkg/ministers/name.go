package ministers

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Language selects one side of a bilingual ministry name.
type Language string

const (
	English Language = "en"
	Slovene Language = "sl"
)

// MinistryName is either a plain free-text name, as found in scraped
// government pages, or a bilingual English/Slovene pair, as found in the
// curated dataset. Construct it with PlainName or BilingualName.
type MinistryName struct {
	bilingual bool
	plain     string
	english   string
	slovene   string
}

// PlainName returns a single-string ministry name.
func PlainName(name string) MinistryName {
	return MinistryName{plain: strings.TrimSpace(name)}
}

// BilingualName returns an English/Slovene ministry name pair.
func BilingualName(english, slovene string) MinistryName {
	return MinistryName{
		bilingual: true,
		english:   strings.TrimSpace(english),
		slovene:   strings.TrimSpace(slovene),
	}
}

// IsBilingual reports whether the name carries separate language variants.
func (name MinistryName) IsBilingual() bool {
	return name.bilingual
}

// IsZero reports whether no name is present at all.
func (name MinistryName) IsZero() bool {
	return name.plain == "" && name.english == "" && name.slovene == ""
}

// In resolves the name in the requested language. A bilingual name missing
// that language falls back to the other one; a plain name is returned as is
// for every language.
func (name MinistryName) In(language Language) string {
	if !name.bilingual {
		return name.plain
	}
	primary, fallback := name.english, name.slovene
	if language == Slovene {
		primary, fallback = name.slovene, name.english
	}
	if primary != "" {
		return primary
	}
	return fallback
}

// Variants returns every non-empty form of the name, English first.
func (name MinistryName) Variants() []string {
	if !name.bilingual {
		if name.plain == "" {
			return nil
		}
		return []string{name.plain}
	}
	var variants []string
	for _, variant := range []string{name.english, name.slovene} {
		if variant != "" {
			variants = append(variants, variant)
		}
	}
	return variants
}

// String returns the English form (or the plain name).
func (name MinistryName) String() string {
	return name.In(English)
}

// UnmarshalYAML accepts either a scalar string or a mapping with "en" and
// "sl" keys. JSON input decodes the same way.
func (name *MinistryName) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*name = MinistryName{}
			return nil
		}
		*name = PlainName(node.Value)
		return nil
	case yaml.MappingNode:
		var pair struct {
			English string `yaml:"en"`
			Slovene string `yaml:"sl"`
		}
		if err := node.Decode(&pair); err != nil {
			return fmt.Errorf("line %d: decoding bilingual ministry: %w", node.Line, err)
		}
		*name = BilingualName(pair.English, pair.Slovene)
		return nil
	default:
		return fmt.Errorf("line %d: ministry must be a string or an {en, sl} mapping", node.Line)
	}
}

// MarshalYAML writes the same shape UnmarshalYAML reads.
func (name MinistryName) MarshalYAML() (interface{}, error) {
	if !name.bilingual {
		return name.plain, nil
	}
	return map[string]string{"en": name.english, "sl": name.slovene}, nil
}
