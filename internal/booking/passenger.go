package booking

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/danpilch/srtpal/internal/api/srt"
)

// PassengerType is the fare type code the backend expects.
type PassengerType string

const (
	PassengerAdult          PassengerType = "1"
	PassengerDisability1To3 PassengerType = "2"
	PassengerDisability4To6 PassengerType = "3"
	PassengerSenior         PassengerType = "4"
	PassengerChild          PassengerType = "5"
)

var passengerTypeKeys = map[string]PassengerType{
	"adult":          PassengerAdult,
	"child":          PassengerChild,
	"senior":         PassengerSenior,
	"disability1to3": PassengerDisability1To3,
	"disability4to6": PassengerDisability4To6,
}

// ParsePassengerType accepts the config/CLI spelling of a passenger type.
func ParsePassengerType(s string) (PassengerType, error) {
	t, ok := passengerTypeKeys[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", srt.NewValidationError(fmt.Sprintf("unknown passenger type %q", s))
	}
	return t, nil
}

func (t *PassengerType) UnmarshalText(text []byte) error {
	parsed, err := ParsePassengerType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t PassengerType) Valid() bool {
	return srt.PassengerTypeName(string(t)) != ""
}

// Name returns the display name.
func (t PassengerType) Name() string {
	return srt.PassengerTypeName(string(t))
}

// Passenger is a count of travellers sharing one fare type.
type Passenger struct {
	Type  PassengerType
	Count int
}

func Adult(n int) Passenger          { return Passenger{Type: PassengerAdult, Count: n} }
func Child(n int) Passenger          { return Passenger{Type: PassengerChild, Count: n} }
func Senior(n int) Passenger         { return Passenger{Type: PassengerSenior, Count: n} }
func Disability1To3(n int) Passenger { return Passenger{Type: PassengerDisability1To3, Count: n} }
func Disability4To6(n int) Passenger { return Passenger{Type: PassengerDisability4To6, Count: n} }

// Add merges two passengers of the same type.
func (p Passenger) Add(other Passenger) (Passenger, error) {
	if p.Type != other.Type {
		return Passenger{}, srt.NewValidationError(
			fmt.Sprintf("cannot combine different types of passengers (%s, %s)", p.Type.Name(), other.Type.Name()))
	}
	return Passenger{Type: p.Type, Count: p.Count + other.Count}, nil
}

func (p Passenger) String() string {
	return fmt.Sprintf("%s %d명", p.Type.Name(), p.Count)
}

// Combine merges passengers by type, keeping first-appearance order, and drops
// types whose total count is not positive.
func Combine(passengers []Passenger) []Passenger {
	var order []PassengerType
	totals := make(map[PassengerType]Passenger)
	for _, p := range passengers {
		cur, seen := totals[p.Type]
		if !seen {
			order = append(order, p.Type)
			totals[p.Type] = p
			continue
		}
		// same type by construction
		merged, _ := cur.Add(p)
		totals[p.Type] = merged
	}

	combined := make([]Passenger, 0, len(order))
	for _, t := range order {
		if p := totals[t]; p.Count > 0 {
			combined = append(combined, p)
		}
	}
	return combined
}

// TotalCount sums passenger counts.
func TotalCount(passengers []Passenger) int {
	total := 0
	for _, p := range passengers {
		total += p.Count
	}
	return total
}

func validatePassengers(passengers []Passenger) error {
	for _, p := range passengers {
		if !p.Type.Valid() {
			return srt.NewValidationError(fmt.Sprintf("unknown passenger type code %q", p.Type))
		}
		if p.Count < 0 {
			return srt.NewValidationError(fmt.Sprintf("negative passenger count %d for %s", p.Count, p.Type.Name()))
		}
	}
	return nil
}

// passengerForm sets the head count fields shared by personal and standby
// reservations. passengers must already be combined.
func passengerForm(form url.Values, passengers []Passenger) {
	form.Set("totPrnb", strconv.Itoa(TotalCount(passengers)))
	form.Set("psgGridcnt", strconv.Itoa(len(passengers)))
	for i, p := range passengers {
		n := strconv.Itoa(i + 1)
		form.Set("psgTpCd"+n, string(p.Type))
		form.Set("psgInfoPerPrnb"+n, strconv.Itoa(p.Count))
	}
}

// seatPreferenceForm sets the per-passenger seat attributes sent with
// personal reservations.
func seatPreferenceForm(form url.Values, passengers []Passenger, special bool, window *bool) {
	seatClass := "1"
	if special {
		seatClass = "2"
	}
	for i := range passengers {
		n := strconv.Itoa(i + 1)
		form.Set("locSeatAttCd"+n, srt.WindowSeatCode(window))
		// 015 general, 021 wheelchair
		form.Set("rqSeatAttCd"+n, "015")
		// 009 forward facing
		form.Set("dirSeatAttCd"+n, "009")
		form.Set("smkSeatAttCd"+n, "000")
		form.Set("etcSeatAttCd"+n, "000")
		form.Set("psrmClCd"+n, seatClass)
	}
}
