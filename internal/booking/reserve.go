package booking

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/danpilch/srtpal/internal/api/srt"
)

type jobKind string

const (
	jobPersonal jobKind = "1101"
	jobStandby  jobKind = "1102"
)

func (j jobKind) String() string {
	if j == jobStandby {
		return "standby"
	}
	return "personal"
}

// attemptState tracks one reservation attempt for logging.
type attemptState string

const (
	stateRequested    attemptState = "requested"
	stateSubmitted    attemptState = "submitted"
	stateVerified     attemptState = "verified"
	stateFailed       attemptState = "failed"
	stateInconsistent attemptState = "inconsistent"
)

// ReserveOptions configures a personal reservation. Empty Passengers means
// one adult; a nil WindowSeat means no preference.
type ReserveOptions struct {
	Passengers []Passenger
	Seat       SeatPolicy
	WindowSeat *bool
}

// StandbyOptions configures a standby reservation. Phone is the optional
// contact number sent with the request.
type StandbyOptions struct {
	Passengers []Passenger
	Seat       SeatPolicy
	Phone      string
}

type reserveRequest struct {
	job        jobKind
	passengers []Passenger
	seat       SeatPolicy
	windowSeat *bool
	phone      string
}

// Reserve books seats on train and returns the reservation as re-read from
// the reservation listing.
func (c *Client) Reserve(ctx context.Context, train *Train, opts ReserveOptions) (*Reservation, error) {
	return c.reserve(ctx, train, reserveRequest{
		job:        jobPersonal,
		passengers: opts.Passengers,
		seat:       opts.Seat,
		windowSeat: opts.WindowSeat,
	})
}

// ReserveStandby places a standby (waitlist) reservation on train.
func (c *Client) ReserveStandby(ctx context.Context, train *Train, opts StandbyOptions) (*Reservation, error) {
	return c.reserve(ctx, train, reserveRequest{
		job:        jobStandby,
		passengers: opts.Passengers,
		seat:       opts.Seat,
		phone:      opts.Phone,
	})
}

func (c *Client) reserve(ctx context.Context, train *Train, req reserveRequest) (*Reservation, error) {
	if err := c.session.requireLogin(); err != nil {
		return nil, err
	}
	if train == nil {
		return nil, srt.NewValidationError("train is required")
	}
	if train.Name != srt.TrainNameSRT {
		return nil, srt.NewValidationError(fmt.Sprintf("%q expected for a train name, %q given", srt.TrainNameSRT, train.Name))
	}

	passengers := req.passengers
	if len(passengers) == 0 {
		passengers = []Passenger{Adult(1)}
	}
	if err := validatePassengers(passengers); err != nil {
		return nil, err
	}
	passengers = Combine(passengers)
	if len(passengers) == 0 {
		return nil, srt.NewValidationError("no passengers to reserve for")
	}

	special := req.seat.Special(train)

	log := c.logger.WithFields(logrus.Fields{
		"job":          req.job,
		"train_number": train.Number,
		"dep_date":     train.DepDate,
		"dep_time":     train.DepTime,
		"passengers":   TotalCount(passengers),
		"special":      special,
	})
	log.WithField("state", stateRequested).Debug("reservation attempt")

	form := reserveForm(train, req.job, passengers, special)
	if req.job == jobPersonal {
		form.Set("reserveType", "1")
		seatPreferenceForm(form, passengers, special, req.windowSeat)
	}
	if req.phone != "" {
		form.Set("mblPhone", req.phone)
	}

	env, err := c.postChecked(ctx, srt.EndpointReserve, form)
	if err != nil {
		log.WithFields(logrus.Fields{"state": stateFailed, "error": err}).Warn("reservation rejected")
		return nil, fmt.Errorf("reserving train %s: %w", train.Number, err)
	}

	number := env.Get("reservListMap.0.pnrNo").String()
	log = log.WithField("reservation_number", number)
	log.WithField("state", stateSubmitted).Debug("reservation attempt")

	// The creation reply alone is not trusted: the reservation must show up
	// in the listing before it is handed to the caller.
	// Any failure from here on leaves an accepted booking behind, so it is
	// reported as an inconsistent state rather than a rejection.
	reservations, err := c.GetReservations(ctx, false)
	if err != nil {
		log.WithFields(logrus.Fields{"state": stateInconsistent, "error": err}).Error("reservation accepted but listing failed")
		return nil, srt.NewError(fmt.Sprintf("reservation %q accepted but could not be verified: %v", number, err))
	}
	for _, r := range reservations {
		if number != "" && r.Number == number {
			log.WithField("state", stateVerified).Info("reservation created")
			return r, nil
		}
	}

	log.WithField("state", stateInconsistent).Error("reservation accepted but not listed")
	return nil, srt.NewError(fmt.Sprintf("ticket %q not found: check reservation status", number))
}

func reserveForm(train *Train, job jobKind, passengers []Passenger, special bool) url.Values {
	seatClass := "1"
	if special {
		seatClass = "2"
	}
	form := url.Values{
		"jobId":           {string(job)},
		"jrnyCnt":         {"1"},
		"jrnyTpCd":        {"11"},
		"jrnySqno1":       {"001"},
		"stndFlg":         {"N"},
		"trnGpCd1":        {"300"},
		"trnGpCd":         {"109"},
		"grpDv":           {"0"},
		"rtnDv":           {"0"},
		"stlbTrnClsfCd1":  {train.Code},
		"dptRsStnCd1":     {train.DepStationCode},
		"dptRsStnCdNm1":   {train.DepStationName},
		"arvRsStnCd1":     {train.ArrStationCode},
		"arvRsStnCdNm1":   {train.ArrStationName},
		"dptDt1":          {train.DepDate},
		"dptTm1":          {train.DepTime},
		"arvTm1":          {train.ArrTime},
		"trnNo1":          {zeroPad(train.Number, 5)},
		"runDt1":          {train.DepDate},
		"psrmClCd1":       {seatClass},
		"dptStnConsOrdr1": {train.DepConstitutionOrder},
		"arvStnConsOrdr1": {train.ArrConstitutionOrder},
		"dptStnRunOrdr1":  {train.DepRunOrder},
		"arvStnRunOrdr1":  {train.ArrRunOrder},
		"smkSeatAttCd1":   {"000"},
		"dirSeatAttCd1":   {"009"},
		"locSeatAttCd1":   {"000"},
		"rqSeatAttCd1":    {"015"},
		"etcSeatAttCd1":   {"000"},
		"smkSeatAttCd2":   {"000"},
		"dirSeatAttCd2":   {"009"},
		"rqSeatAttCd2":    {"015"},
	}
	passengerForm(form, passengers)
	return form
}

// ReserveStandbyOptionSettings submits SMS and class-change consent for a
// standby reservation. The result is only the transport status (200); the
// reply body is not decoded, so callers that care must re-check the
// reservation themselves.
func (c *Client) ReserveStandbyOptionSettings(ctx context.Context, reservationNumber string, agreeSMS, agreeClassChange bool, phone string) (bool, error) {
	if err := c.session.requireLogin(); err != nil {
		return false, err
	}

	telNo := ""
	if agreeSMS {
		telNo = phone
	}
	form := url.Values{
		"pnrNo":        {reservationNumber},
		"psrmClChgFlg": {yesNo(agreeClassChange)},
		"smsSndFlg":    {yesNo(agreeSMS)},
		"telNo":        {telNo},
	}

	resp, err := c.post(ctx, srt.EndpointStandbyOption, form)
	if err != nil {
		return false, err
	}

	c.logger.WithFields(logrus.Fields{
		"reservation_number": reservationNumber,
		"status":             resp.StatusCode,
	}).Debug("standby options submitted")

	return resp.StatusCode == http.StatusOK, nil
}

func zeroPad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

func yesNo(b bool) string {
	if b {
		return "Y"
	}
	return "N"
}
