package ministers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		candidate string
		want      float64
	}{
		{"identical ignoring case and spacing", "Ministrstvo  za FINANCE", "ministrstvo za finance", 1},
		{"english query against slovene name", "Finance", "Ministrstvo za finance", 1},
		{"different key terms", "Ministry of Finance", "Ministry of Justice", 0},
		{"two shared key terms", "Ministrstvo za delo, družino in socialne zadeve", "Ministry of Labour, Family and Social Affairs", 1},
		{"one of two key terms", "Ministrstvo za delo, družino in socialne zadeve", "Ministry of Labour", 0.5},
		{"word overlap ignores boilerplate", "Office of the Government", "Government Office", 1},
		{"partial word overlap", "Ministrstvo za javno upravo", "Ministrstvo za javno naročanje", 0.5},
		{"boilerplate alone does not match", "Ministrstvo za razvoj", "Ministrstvo za javno upravo", 0},
		{"key term against portfolio without one", "Ministrstvo za finance", "Ministrstvo za javno upravo", 0},
		{"portfolio without key term against key term", "Ministry of Public Administration", "Ministry of Finance", 0},
		{"three of ten words", "alfa vlade urad", "Urad vlade alfa beta gama delta epsilon zeta eta theta", 0.3},
		{"substring floor", "Urad", "Urad vlade za komuniciranje", 0.5},
		{"empty query", "", "Ministrstvo za finance", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Similarity(tt.query, tt.candidate), 1e-9)
		})
	}
}

func TestKeyTerms(t *testing.T) {
	tests := []struct {
		name string
		want []string
	}{
		{"Ministrstvo za notranje zadeve", []string{"interior"}},
		{"Ministrstvo za izobraževanje, znanost in šport", []string{"education"}},
		{"Ministrstvo za infrastrukturo in prostor", []string{"infrastructure"}},
		{"Ministrstvo za kmetijstvo, gozdarstvo in prehrano", []string{"agriculture"}},
		{"Ministry of Foreign Affairs", []string{"foreign"}},
		{"Ministrstvo za okolje in prostor", []string{"environment"}},
		{"Ministrstvo za obrambo", []string{"defense"}},
		{"Ministrstvo za gospodarstvo", []string{"economy"}},
		{"Služba vlade za zakonodajo", nil},
	}

	for _, tt := range tests {
		got := KeyTerms(tt.name)
		assert.Len(t, got, len(tt.want), tt.name)
		for _, term := range tt.want {
			assert.Contains(t, got, term, tt.name)
		}
	}
}

func TestKeyTerms_ShortStemsNeedWholeWord(t *testing.T) {
	assert.Contains(t, KeyTerms("Ministrstvo za delo"), "labor")
	assert.NotContains(t, KeyTerms("Zakon o delovnih razmerjih"), "labor")
}
