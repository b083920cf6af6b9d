package textsim_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pressrun/pressrun/internal/textsim"
)

func TestSimilar(t *testing.T) {
	t.Parallel()

	base := "a startup announced a new funding round today led by a major venture firm"

	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"identical", base, base, true},
		{"empty left", "", base, false},
		{"empty right", base, "", false},
		{"minor edit", base, strings.Replace(base, "today", "monday", 1), true},
		{"unrelated", base, "the weather service issued a storm warning for the coastal region tonight", false},
		{"large length difference", base, base + strings.Repeat(" more trailing text", 10), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, textsim.Similar(tt.a, tt.b, textsim.DefaultThreshold))
		})
	}
}

func TestNormalizePrefix(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("The  Quick   Brown Fox. ", 30)
	got := textsim.NormalizePrefix(long)

	assert.NotEmpty(t, got)
	assert.Equal(t, strings.ToLower(got), got)
	assert.NotContains(t, got, "  ", "whitespace must be collapsed")
	assert.LessOrEqual(t, len(got), textsim.PrefixLength)
}

func TestNormalizePrefix_TooShort(t *testing.T) {
	t.Parallel()

	assert.Empty(t, textsim.NormalizePrefix("short text"))
}
