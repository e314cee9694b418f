package booking

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danpilch/srtpal/internal/api/srt"
)

func TestCombineSameType(t *testing.T) {
	combined := Combine([]Passenger{Adult(1), Adult(2)})
	assert.Equal(t, []Passenger{Adult(3)}, combined)
}

func TestCombineWithItselfDoubles(t *testing.T) {
	list := []Passenger{Child(2), Child(1)}
	once := Combine(list)
	twice := Combine(append(append([]Passenger{}, list...), list...))

	require.Len(t, once, 1)
	require.Len(t, twice, 1)
	assert.Equal(t, once[0].Count*2, twice[0].Count)
}

func TestCombineMixedTypes(t *testing.T) {
	combined := Combine([]Passenger{Adult(1), Child(2), Senior(0), Adult(1), Child(-2), Disability1To3(1)})

	assert.Equal(t, []Passenger{Adult(2), Disability1To3(1)}, combined)
	assert.Equal(t, 3, TotalCount(combined))
	for _, p := range combined {
		assert.Positive(t, p.Count)
	}
}

func TestPassengerAdd(t *testing.T) {
	sum, err := Senior(1).Add(Senior(2))
	require.NoError(t, err)
	assert.Equal(t, Senior(3), sum)

	_, err = Adult(1).Add(Child(1))
	assert.ErrorIs(t, err, srt.ErrValidation)
}

func TestParsePassengerType(t *testing.T) {
	pt, err := ParsePassengerType(" Disability4to6 ")
	require.NoError(t, err)
	assert.Equal(t, PassengerDisability4To6, pt)

	_, err = ParsePassengerType("infant")
	assert.ErrorIs(t, err, srt.ErrValidation)

	var fromText PassengerType
	require.NoError(t, fromText.UnmarshalText([]byte("child")))
	assert.Equal(t, PassengerChild, fromText)
	assert.Equal(t, "어린이 2명", Child(2).String())
}

func TestPassengerForms(t *testing.T) {
	passengers := []Passenger{Adult(2), Child(1)}
	window := true

	form := url.Values{}
	passengerForm(form, passengers)
	seatPreferenceForm(form, passengers, true, &window)

	assert.Equal(t, "3", form.Get("totPrnb"))
	assert.Equal(t, "2", form.Get("psgGridcnt"))
	assert.Equal(t, "1", form.Get("psgTpCd1"))
	assert.Equal(t, "2", form.Get("psgInfoPerPrnb1"))
	assert.Equal(t, "5", form.Get("psgTpCd2"))
	assert.Equal(t, "1", form.Get("psgInfoPerPrnb2"))

	for _, n := range []string{"1", "2"} {
		assert.Equal(t, "012", form.Get("locSeatAttCd"+n))
		assert.Equal(t, "015", form.Get("rqSeatAttCd"+n))
		assert.Equal(t, "009", form.Get("dirSeatAttCd"+n))
		assert.Equal(t, "000", form.Get("smkSeatAttCd"+n))
		assert.Equal(t, "000", form.Get("etcSeatAttCd"+n))
		assert.Equal(t, "2", form.Get("psrmClCd"+n))
	}
	assert.Empty(t, form.Get("psgTpCd3"))
}

func TestValidatePassengers(t *testing.T) {
	assert.NoError(t, validatePassengers([]Passenger{Adult(1), Child(0)}))
	assert.ErrorIs(t, validatePassengers([]Passenger{{Type: "9", Count: 1}}), srt.ErrValidation)
	assert.ErrorIs(t, validatePassengers([]Passenger{Adult(-1)}), srt.ErrValidation)
}
