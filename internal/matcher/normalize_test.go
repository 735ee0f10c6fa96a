package matcher_test

import (
	"testing"

	"github.com/politia/politia/internal/matcher"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "uppercases and trims", input: "  Rossi Mario ", want: "ROSSI MARIO"},
		{name: "strips presiding officer title", input: "PRESIDENTE Fontana Lorenzo", want: "FONTANA LORENZO"},
		{name: "strips honorific abbreviation", input: "On. Rossi Mario", want: "ROSSI MARIO"},
		{name: "strips ministerial title", input: "MINISTRO Giorgetti Giancarlo", want: "GIORGETTI GIANCARLO"},
		{name: "keeps words containing title substrings", input: "Conte Giuseppe", want: "CONTE GIUSEPPE"},
		{name: "removes punctuation", input: "D'Alema, Massimo", want: "DALEMA MASSIMO"},
		{name: "collapses whitespace", input: "ROSSI    MARIO", want: "ROSSI MARIO"},
		{name: "keeps accented letters", input: "Niccolò Paganini", want: "NICCOLÒ PAGANINI"},
		{name: "title-only label folds to empty", input: "PRESIDENTE", want: ""},
		{name: "empty input", input: "", want: ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, matcher.Normalize(tt.input))
		})
	}
}

func TestNormalize_idempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"ROSSI Mario",
		"On. PRESIDENTE Rossi, Mario",
		"LI Silvana Andreina",
		"  d'Urso   Barbara  ",
		"",
		"PRESIDENTE",
	}
	for _, input := range inputs {
		once := matcher.Normalize(input)
		require.Equal(t, once, matcher.Normalize(once), "input %q", input)
	}
}

func TestFold_keepsTitles(t *testing.T) {
	t.Parallel()

	require.Equal(t, "PRESIDENTE", matcher.Fold("Presidente"))
	require.Equal(t, "ON ROSSI MARIO", matcher.Fold("On. Rossi Mario"))
}
