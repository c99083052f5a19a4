package similarity

import (
	"testing"

	"github.com/finsort/finsort/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestExtractMerchantToken(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        string
	}{
		{
			name:        "code-dash token wins",
			description: "VDC-TESCO STORES LONDON",
			want:        "VDC-TESCO",
		},
		{
			name:        "store name with numeric code",
			description: "TESCO STORES 3456",
			want:        "TESCO STORES 3456",
		},
		{
			name:        "store name without code",
			description: "STARBUCKS COFFEE",
			want:        "STARBUCKS COFFEE",
		},
		{
			name:        "fallback to first two fields",
			description: "Amazon Prime membership",
			want:        "Amazon Prime",
		},
		{
			name:        "single field",
			description: "Netflix",
			want:        "Netflix",
		},
		{
			name:        "empty description",
			description: "",
			want:        "",
		},
		{
			name:        "whitespace only",
			description: "   ",
			want:        "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractMerchantToken(tt.description))
		})
	}
}

func TestDiceCoefficient(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{name: "identical", a: "tesco stores", b: "tesco stores", want: 1.0},
		{name: "disjoint", a: "abcd", b: "wxyz", want: 0.0},
		{name: "classic night nacht", a: "night", b: "nacht", want: 0.25},
		{name: "short input a", a: "a", b: "tesco", want: 0.0},
		{name: "short input b", a: "tesco", b: "t", want: 0.0},
		{name: "both empty are identical", a: "", b: "", want: 1.0},
		// Rune bigrams: the accented pair shares no bigram, but a byte-wise
		// scorer would count the split UTF-8 lead bytes as overlap.
		{name: "multi-byte runes are single symbols", a: "éé", b: "éx", want: 0.0},
		{name: "single multi-byte rune is too short", a: "é", b: "tesco", want: 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, DiceCoefficient(tt.a, tt.b), 0.0001)
		})
	}
}

func TestDiceCoefficient_Symmetric(t *testing.T) {
	a, b := "tesco stores 3456", "tesco stores 9921"
	assert.InDelta(t, DiceCoefficient(a, b), DiceCoefficient(b, a), 0.0001)
	assert.Greater(t, DiceCoefficient(a, b), 0.6)
}

func TestFinder_FindSimilar(t *testing.T) {
	mustTxn := func(desc string) model.Transaction {
		return model.Transaction{ID: desc, Description: desc}
	}

	t.Run("accepts high dice score", func(t *testing.T) {
		finder := NewFinder(0)
		reference := mustTxn("TESCO STORES 3456 LONDON")
		corpus := []model.Transaction{
			mustTxn("TESCO STORES 9921 LONDON"),
			mustTxn("SAINSBURYS LOCAL 12"),
		}
		matches := finder.FindSimilar(reference, corpus)
		assert.Len(t, matches, 1)
		assert.Equal(t, "TESCO STORES 9921 LONDON", matches[0].Description)
	})

	t.Run("accepts same merchant code despite low score", func(t *testing.T) {
		finder := NewFinder(0)
		reference := mustTxn("VDC-TESCO 990188367773 2217")
		corpus := []model.Transaction{
			mustTxn("VDC-TESCO 111111111111 9999 EXTRA TRAILING REFERENCE"),
		}
		matches := finder.FindSimilar(reference, corpus)
		assert.Len(t, matches, 1)
	})

	t.Run("coarse filter drops unrelated descriptions", func(t *testing.T) {
		finder := NewFinder(0)
		reference := mustTxn("TESCO STORES 3456")
		corpus := []model.Transaction{
			mustTxn("COSTA COFFEE 412"),
		}
		assert.Empty(t, finder.FindSimilar(reference, corpus))
	})

	t.Run("secondary description fields pass the coarse filter", func(t *testing.T) {
		finder := NewFinder(0)
		reference := mustTxn("TESCO STORES 3456")
		candidate := model.Transaction{
			ID:           "c1",
			Description:  "TESCO STORES 3499",
			Description2: "CONTACTLESS",
		}
		matches := finder.FindSimilar(reference, []model.Transaction{candidate})
		assert.Len(t, matches, 1)
	})

	t.Run("empty reference description finds nothing", func(t *testing.T) {
		finder := NewFinder(0)
		matches := finder.FindSimilar(mustTxn(""), []model.Transaction{mustTxn("TESCO STORES 3456")})
		assert.Nil(t, matches)
	})

	t.Run("zero threshold falls back to default", func(t *testing.T) {
		assert.InDelta(t, DefaultThreshold, NewFinder(0).Threshold, 0.0001)
		assert.InDelta(t, 0.8, NewFinder(0.8).Threshold, 0.0001)
	})
}
