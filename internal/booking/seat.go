package booking

import (
	"fmt"
	"strings"

	"github.com/danpilch/srtpal/internal/api/srt"
)

// SeatPolicy is the caller's preference between general and special class.
type SeatPolicy int

const (
	GeneralFirst SeatPolicy = iota
	GeneralOnly
	SpecialFirst
	SpecialOnly
)

var seatPolicyNames = map[SeatPolicy]string{
	GeneralFirst: "general_first",
	GeneralOnly:  "general_only",
	SpecialFirst: "special_first",
	SpecialOnly:  "special_only",
}

func (p SeatPolicy) String() string {
	if name, ok := seatPolicyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("SeatPolicy(%d)", int(p))
}

func ParseSeatPolicy(s string) (SeatPolicy, error) {
	s = strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, "-", "_")))
	if s == "" {
		return GeneralFirst, nil
	}
	for p, name := range seatPolicyNames {
		if name == s {
			return p, nil
		}
	}
	return 0, srt.NewValidationError(fmt.Sprintf("unknown seat policy %q", s))
}

func (p *SeatPolicy) UnmarshalText(text []byte) error {
	parsed, err := ParseSeatPolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Special decides whether to request the special class on train.
// SpecialFirst relies on server-side allocation when special is sold out.
func (p SeatPolicy) Special(train *Train) bool {
	switch p {
	case GeneralOnly:
		return false
	case SpecialOnly:
		return true
	case GeneralFirst:
		return !train.GeneralSeatAvailable()
	case SpecialFirst:
		return train.SpecialSeatAvailable()
	default:
		return false
	}
}

// Satisfiable reports whether train currently has a seat this policy accepts.
func (p SeatPolicy) Satisfiable(train *Train) bool {
	switch p {
	case GeneralOnly:
		return train.GeneralSeatAvailable()
	case SpecialOnly:
		return train.SpecialSeatAvailable()
	default:
		return train.SeatAvailable()
	}
}
