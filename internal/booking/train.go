package booking

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/danpilch/srtpal/internal/api/srt"
)

const seatAvailableMarker = "예약가능"

// Train is one scheduled service as returned by a schedule search.
type Train struct {
	Code   string
	Name   string
	Number string

	DepDate        string
	DepTime        string
	DepStationCode string
	DepStationName string
	ArrDate        string
	ArrTime        string
	ArrStationCode string
	ArrStationName string

	GeneralSeatState string
	SpecialSeatState string
	StandbyCode      string

	// Ordering fields echoed back in reservation requests.
	DepRunOrder          string
	DepConstitutionOrder string
	ArrRunOrder          string
	ArrConstitutionOrder string
}

func trainFromRow(row gjson.Result) Train {
	code := row.Get("stlbTrnClsfCd").String()
	dep := row.Get("dptRsStnCd").String()
	arr := row.Get("arvRsStnCd").String()
	return Train{
		Code:                 code,
		Name:                 srt.TrainName(code),
		Number:               row.Get("trnNo").String(),
		DepDate:              row.Get("dptDt").String(),
		DepTime:              row.Get("dptTm").String(),
		DepStationCode:       dep,
		DepStationName:       srt.StationName(dep),
		ArrDate:              row.Get("arvDt").String(),
		ArrTime:              row.Get("arvTm").String(),
		ArrStationCode:       arr,
		ArrStationName:       srt.StationName(arr),
		GeneralSeatState:     row.Get("gnrmRsvPsbStr").String(),
		SpecialSeatState:     row.Get("sprmRsvPsbStr").String(),
		StandbyCode:          row.Get("rsvWaitPsbCd").String(),
		DepRunOrder:          row.Get("dptStnRunOrdr").String(),
		DepConstitutionOrder: row.Get("dptStnConsOrdr").String(),
		ArrRunOrder:          row.Get("arvStnRunOrdr").String(),
		ArrConstitutionOrder: row.Get("arvStnConsOrdr").String(),
	}
}

func (t *Train) GeneralSeatAvailable() bool {
	return strings.Contains(t.GeneralSeatState, seatAvailableMarker)
}

func (t *Train) SpecialSeatAvailable() bool {
	return strings.Contains(t.SpecialSeatState, seatAvailableMarker)
}

func (t *Train) SeatAvailable() bool {
	return t.GeneralSeatAvailable() || t.SpecialSeatAvailable()
}

// StandbyAvailable reports whether a standby reservation can be placed (wait code 9).
func (t *Train) StandbyAvailable() bool {
	return strings.Contains(t.StandbyCode, "9")
}

func (t *Train) String() string {
	standby := "불가능"
	if t.StandbyAvailable() {
		standby = "가능"
	}
	return fmt.Sprintf("[%s %s] %s, %s~%s(%s~%s) 특실 %s, 일반실 %s, 예약대기 %s",
		t.Name, t.Number, formatDate(t.DepDate),
		t.DepStationName, t.ArrStationName,
		formatTime(t.DepTime), formatTime(t.ArrTime),
		t.SpecialSeatState, t.GeneralSeatState, standby)
}

// formatDate renders YYYYMMDD as "MM월 DD일".
func formatDate(d string) string {
	if len(d) < 8 {
		return d
	}
	return fmt.Sprintf("%s월 %s일", d[4:6], d[6:8])
}

// formatTime renders HHMMSS as "HH:MM".
func formatTime(t string) string {
	if len(t) < 4 {
		return t
	}
	return t[0:2] + ":" + t[2:4]
}
