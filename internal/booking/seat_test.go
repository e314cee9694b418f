package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danpilch/srtpal/internal/api/srt"
)

func TestSeatPolicySpecial(t *testing.T) {
	const (
		available = "예약가능"
		soldOut   = "매진"
	)

	tests := []struct {
		name    string
		policy  SeatPolicy
		general string
		special string
		want    bool
	}{
		{name: "general first, general sold out", policy: GeneralFirst, general: soldOut, special: available, want: true},
		{name: "general first, general available", policy: GeneralFirst, general: available, special: available, want: false},
		{name: "general first, both sold out", policy: GeneralFirst, general: soldOut, special: soldOut, want: true},
		{name: "general only", policy: GeneralOnly, general: soldOut, special: available, want: false},
		{name: "special only, special sold out", policy: SpecialOnly, general: available, special: soldOut, want: true},
		{name: "special only, special available", policy: SpecialOnly, general: soldOut, special: available, want: true},
		{name: "special first, special available", policy: SpecialFirst, general: available, special: available, want: true},
		{name: "special first, special sold out", policy: SpecialFirst, general: available, special: soldOut, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			train := &Train{GeneralSeatState: tt.general, SpecialSeatState: tt.special}
			assert.Equal(t, tt.want, tt.policy.Special(train))
		})
	}
}

func TestSeatPolicySatisfiable(t *testing.T) {
	generalOnly := &Train{GeneralSeatState: "예약가능", SpecialSeatState: "매진"}
	assert.True(t, GeneralOnly.Satisfiable(generalOnly))
	assert.True(t, GeneralFirst.Satisfiable(generalOnly))
	assert.True(t, SpecialFirst.Satisfiable(generalOnly))
	assert.False(t, SpecialOnly.Satisfiable(generalOnly))
}

func TestParseSeatPolicy(t *testing.T) {
	p, err := ParseSeatPolicy("special-first")
	require.NoError(t, err)
	assert.Equal(t, SpecialFirst, p)

	p, err = ParseSeatPolicy("")
	require.NoError(t, err)
	assert.Equal(t, GeneralFirst, p)

	_, err = ParseSeatPolicy("business")
	assert.ErrorIs(t, err, srt.ErrValidation)

	var fromText SeatPolicy
	require.NoError(t, fromText.UnmarshalText([]byte("GENERAL_ONLY")))
	assert.Equal(t, GeneralOnly, fromText)
	assert.Equal(t, "general_only", fromText.String())
}
