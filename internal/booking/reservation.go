package booking

import (
	"context"
	"fmt"
	"net/url"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/danpilch/srtpal/internal/api/srt"
)

// Ticket is one seat of a reservation.
type Ticket struct {
	Car               string
	Seat              string
	SeatClassCode     string
	SeatClass         string
	PassengerTypeCode string
	PassengerType     string
	Price             int
	OriginalPrice     int
	Discount          int
}

func ticketFromRow(row gjson.Result) Ticket {
	seatClass := row.Get("psrmClCd").String()
	passengerType := row.Get("psgTpCd").String()
	return Ticket{
		Car:               row.Get("scarNo").String(),
		Seat:              row.Get("seatNo").String(),
		SeatClassCode:     seatClass,
		SeatClass:         srt.SeatClassName(seatClass),
		PassengerTypeCode: passengerType,
		PassengerType:     srt.PassengerTypeName(passengerType),
		Price:             int(row.Get("rcvdAmt").Int()),
		OriginalPrice:     int(row.Get("stdrPrc").Int()),
		Discount:          int(row.Get("dcntPrc").Int()),
	}
}

func (t Ticket) String() string {
	return fmt.Sprintf("%s호차 %s (%s) %s [%d원(%d원 할인)]",
		t.Car, t.Seat, t.SeatClass, t.PassengerType, t.Price, t.Discount)
}

// Reservation is a booking confirmed by the reservation listing.
type Reservation struct {
	Number    string
	TotalCost int
	SeatCount int

	TrainCode      string
	TrainName      string
	TrainNumber    string
	DepDate        string
	DepTime        string
	DepStationCode string
	DepStationName string
	ArrTime        string
	ArrStationCode string
	ArrStationName string

	// Payment deadline.
	PaymentDate string
	PaymentTime string
	Paid        bool

	Tickets []Ticket
}

func newReservation(train, pay gjson.Result, tickets []Ticket) *Reservation {
	trainCode := pay.Get("stlbTrnClsfCd").String()
	dep := pay.Get("dptRsStnCd").String()
	arr := pay.Get("arvRsStnCd").String()
	return &Reservation{
		Number:         train.Get("pnrNo").String(),
		TotalCost:      int(train.Get("rcvdAmt").Int()),
		SeatCount:      int(train.Get("tkSpecNum").Int()),
		TrainCode:      trainCode,
		TrainName:      srt.TrainName(trainCode),
		TrainNumber:    pay.Get("trnNo").String(),
		DepDate:        pay.Get("dptDt").String(),
		DepTime:        pay.Get("dptTm").String(),
		DepStationCode: dep,
		DepStationName: srt.StationName(dep),
		ArrTime:        pay.Get("arvTm").String(),
		ArrStationCode: arr,
		ArrStationName: srt.StationName(arr),
		PaymentDate:    pay.Get("iseLmtDt").String(),
		PaymentTime:    pay.Get("iseLmtTm").String(),
		Paid:           pay.Get("stlFlg").String() == "Y",
		Tickets:        tickets,
	}
}

func (r *Reservation) String() string {
	s := fmt.Sprintf("[%s] %s, %s~%s (%s~%s) %d원(%d석)",
		r.TrainName, formatDate(r.DepDate),
		r.DepStationName, r.ArrStationName,
		formatTime(r.DepTime), formatTime(r.ArrTime),
		r.TotalCost, r.SeatCount)
	if !r.Paid {
		s += fmt.Sprintf(", 구입기한 %s %s", formatDate(r.PaymentDate), formatTime(r.PaymentTime))
	}
	return s
}

// GetReservations lists the user's reservations with their tickets.
// The backend returns train and payment rows as two index-aligned lists;
// lists of different length are rejected instead of truncated.
func (c *Client) GetReservations(ctx context.Context, paidOnly bool) ([]*Reservation, error) {
	if err := c.session.requireLogin(); err != nil {
		return nil, err
	}

	env, err := c.postChecked(ctx, srt.EndpointTickets, url.Values{"pageNo": {"0"}})
	if err != nil {
		return nil, fmt.Errorf("listing reservations: %w", err)
	}

	trainRows := env.Get("trainListMap").Array()
	payRows := env.Get("payListMap").Array()
	if len(trainRows) != len(payRows) {
		return nil, srt.NewProtocolError(fmt.Sprintf(
			"reservation list mismatch: %d train rows, %d payment rows", len(trainRows), len(payRows)))
	}

	reservations := make([]*Reservation, 0, len(trainRows))
	for i, train := range trainRows {
		pay := payRows[i]
		if paidOnly && pay.Get("stlFlg").String() == "N" {
			continue
		}

		tickets, err := c.TicketInfo(ctx, train.Get("pnrNo").String())
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, newReservation(train, pay, tickets))
	}

	c.logger.WithFields(logrus.Fields{
		"reservations": len(reservations),
		"paid_only":    paidOnly,
	}).Debug("listed reservations")

	return reservations, nil
}

// TicketInfo fetches the seats of one reservation.
func (c *Client) TicketInfo(ctx context.Context, reservationNumber string) ([]Ticket, error) {
	if err := c.session.requireLogin(); err != nil {
		return nil, err
	}

	form := url.Values{
		"pnrNo":    {reservationNumber},
		"jrnySqno": {"1"},
	}
	env, err := c.postChecked(ctx, srt.EndpointTicketInfo, form)
	if err != nil {
		return nil, fmt.Errorf("fetching tickets of %s: %w", reservationNumber, err)
	}

	rows := env.Get("trainListMap").Array()
	tickets := make([]Ticket, 0, len(rows))
	for _, row := range rows {
		tickets = append(tickets, ticketFromRow(row))
	}
	return tickets, nil
}

// Cancel cancels a reservation. Unlike Reserve there is nothing to re-read
// afterwards, so a SUCC reply is taken as final.
func (c *Client) Cancel(ctx context.Context, reservationNumber string) error {
	if err := c.session.requireLogin(); err != nil {
		return err
	}

	form := url.Values{
		"pnrNo":     {reservationNumber},
		"jrnyCnt":   {"1"},
		"rsvChgTno": {"0"},
	}
	if _, err := c.postChecked(ctx, srt.EndpointCancel, form); err != nil {
		return fmt.Errorf("cancelling %s: %w", reservationNumber, err)
	}

	c.logger.WithField("reservation_number", reservationNumber).Info("reservation cancelled")
	return nil
}
