package srt

import "sort"

var stationCodes = map[string]string{
	"수서":      "0551",
	"동탄":      "0552",
	"평택지제":    "0553",
	"곡성":      "0049",
	"공주":      "0514",
	"광주송정":    "0036",
	"구례구":     "0050",
	"김천(구미)":  "0507",
	"나주":      "0037",
	"남원":      "0048",
	"대전":      "0010",
	"동대구":     "0015",
	"마산":      "0059",
	"목포":      "0041",
	"밀양":      "0017",
	"부산":      "0020",
	"서대구":     "0506",
	"순천":      "0051",
	"신경주":     "0508",
	"여수EXPO":  "0053",
	"여천":      "0139",
	"오송":      "0297",
	"울산(통도사)": "0509",
	"익산":      "0030",
	"전주":      "0045",
	"정읍":      "0033",
	"진영":      "0056",
	"진주":      "0063",
	"창원":      "0057",
	"창원중앙":    "0512",
	"천안아산":    "0502",
	"포항":      "0515",
}

var stationNames = func() map[string]string {
	m := make(map[string]string, len(stationCodes))
	for name, code := range stationCodes {
		m[code] = name
	}
	return m
}()

var trainNames = map[string]string{
	"00": "KTX",
	"02": "무궁화",
	"03": "통근열차",
	"04": "누리로",
	"05": "전체",
	"07": "KTX-산천",
	"08": "ITX-새마을",
	"09": "ITX-청춘",
	"10": "KTX-산천",
	"17": "SRT",
	"18": "ITX-마음",
}

// TrainNameSRT is the display name of the only service this client books.
const TrainNameSRT = "SRT"

var seatClassNames = map[string]string{
	"1": "일반실",
	"2": "특실",
}

var passengerTypeNames = map[string]string{
	"1": "어른/청소년",
	"2": "장애 1~3급",
	"3": "장애 4~6급",
	"4": "경로",
	"5": "어린이",
}

// StationCode resolves a station display name.
func StationCode(name string) (string, bool) {
	code, ok := stationCodes[name]
	return code, ok
}

// StationName returns the display name for a station code, or "" if unknown.
func StationName(code string) string {
	return stationNames[code]
}

// Stations returns all station display names, sorted.
func Stations() []string {
	names := make([]string, 0, len(stationCodes))
	for name := range stationCodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func TrainName(code string) string         { return trainNames[code] }
func SeatClassName(code string) string     { return seatClassNames[code] }
func PassengerTypeName(code string) string { return passengerTypeNames[code] }

// WindowSeatCode maps a window-seat preference: nil means no preference.
func WindowSeatCode(window *bool) string {
	switch {
	case window == nil:
		return "000"
	case *window:
		return "012"
	default:
		return "013"
	}
}
