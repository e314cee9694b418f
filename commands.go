package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/danpilch/srtpal/internal/api/srt"
	"github.com/danpilch/srtpal/internal/booking"
	"github.com/danpilch/srtpal/internal/config"
	"github.com/danpilch/srtpal/internal/monitor"
	"github.com/danpilch/srtpal/internal/notify"
	"github.com/danpilch/srtpal/internal/scheduler"
)

func newClient(baseURL string, timeout time.Duration, g *Globals, logger *logrus.Logger) (*booking.Client, error) {
	transport, err := srt.NewClient(baseURL, timeout)
	if err != nil {
		return nil, fmt.Errorf("creating srt client: %w", err)
	}
	return booking.NewClient(booking.NewSession(transport, g.ID, g.Password, logger), logger), nil
}

// login logs client in and returns a func that logs it out again.
func login(ctx context.Context, client *booking.Client, g *Globals, logger *logrus.Logger) (func(), error) {
	if g.ID == "" || g.Password == "" {
		return nil, fmt.Errorf("SRT_ID and SRT_PASSWORD (or --id and --password) are required")
	}
	if err := client.Session().Login(ctx, "", ""); err != nil {
		return nil, fmt.Errorf("logging in: %w", err)
	}
	logger.WithField("login_type", client.Session().LoginType()).Info("logged in")

	return func() {
		if err := client.Session().Logout(context.Background()); err != nil {
			logger.WithField("error", err).Warn("logout failed")
		}
	}, nil
}

func loggedInClient(ctx context.Context, g *Globals, logger *logrus.Logger) (*booking.Client, func(), error) {
	client, err := newClient(g.BaseURL, g.Timeout, g, logger)
	if err != nil {
		return nil, nil, err
	}
	logout, err := login(ctx, client, g, logger)
	if err != nil {
		return nil, nil, err
	}
	return client, logout, nil
}

type SearchFlags struct {
	Date      string `help:"Departure date (YYYYMMDD), defaults to today"`
	Time      string `help:"Earliest departure time (HHMMSS)" default:"000000"`
	TimeLimit string `help:"Latest departure time (HHMMSS), inclusive" name:"time-limit"`
}

func (f SearchFlags) query(dep, arr string, includeSoldOut bool) booking.SearchQuery {
	return booking.SearchQuery{
		Dep:            dep,
		Arr:            arr,
		Date:           f.Date,
		Time:           f.Time,
		TimeLimit:      f.TimeLimit,
		IncludeSoldOut: includeSoldOut,
	}
}

type PassengerFlags struct {
	Adults         int `help:"Adult passengers" default:"1"`
	Children       int `help:"Child passengers"`
	Seniors        int `help:"Senior passengers"`
	Disability1To3 int `help:"Passengers with grade 1-3 disability" name:"disability1to3"`
	Disability4To6 int `help:"Passengers with grade 4-6 disability" name:"disability4to6"`
}

func (f PassengerFlags) list() []booking.Passenger {
	return booking.Combine([]booking.Passenger{
		booking.Adult(f.Adults),
		booking.Child(f.Children),
		booking.Senior(f.Seniors),
		booking.Disability1To3(f.Disability1To3),
		booking.Disability4To6(f.Disability4To6),
	})
}

// pickTrain returns the train with number, or the first train accepted by ok
// when number is empty.
func pickTrain(trains []booking.Train, number string, ok func(*booking.Train) bool) (*booking.Train, error) {
	want := strings.TrimLeft(number, "0")
	for i := range trains {
		t := &trains[i]
		if number != "" {
			if strings.TrimLeft(t.Number, "0") == want {
				return t, nil
			}
			continue
		}
		if ok(t) {
			return t, nil
		}
	}
	if number != "" {
		return nil, fmt.Errorf("train %s not found in search results", number)
	}
	return nil, fmt.Errorf("no train matches")
}

func printReservation(r *booking.Reservation) {
	fmt.Printf("%s %s\n", r.Number, r)
	for _, t := range r.Tickets {
		fmt.Printf("  %s\n", t)
	}
}

type SearchCmd struct {
	Dep string `arg:"" help:"Departure station"`
	Arr string `arg:"" help:"Arrival station"`

	SearchFlags    `embed:""`
	IncludeSoldOut bool `help:"Include sold-out trains" name:"include-sold-out"`
}

func (c *SearchCmd) Run(ctx context.Context, g *Globals, logger *logrus.Logger) error {
	client, err := newClient(g.BaseURL, g.Timeout, g, logger)
	if err != nil {
		return err
	}

	trains, err := client.SearchTrain(ctx, c.query(c.Dep, c.Arr, c.IncludeSoldOut))
	if err != nil {
		return err
	}
	for i := range trains {
		fmt.Println(trains[i].String())
	}
	return nil
}

type ReserveCmd struct {
	Dep string `arg:"" help:"Departure station"`
	Arr string `arg:"" help:"Arrival station"`

	SearchFlags    `embed:""`
	PassengerFlags `embed:""`

	Train  string `help:"Train number; the first train with a fitting seat if empty"`
	Seat   string `help:"Seat policy: general_first, general_only, special_first or special_only" default:"general_first"`
	Window string `help:"Window seat preference" enum:"any,window,aisle" default:"any"`
}

func (c *ReserveCmd) windowSeat() *bool {
	var window bool
	switch c.Window {
	case "window":
		window = true
	case "aisle":
		window = false
	default:
		return nil
	}
	return &window
}

func (c *ReserveCmd) Run(ctx context.Context, g *Globals, logger *logrus.Logger) error {
	policy, err := booking.ParseSeatPolicy(c.Seat)
	if err != nil {
		return err
	}

	client, logout, err := loggedInClient(ctx, g, logger)
	if err != nil {
		return err
	}
	defer logout()

	trains, err := client.SearchTrain(ctx, c.query(c.Dep, c.Arr, false))
	if err != nil {
		return err
	}
	train, err := pickTrain(trains, c.Train, policy.Satisfiable)
	if err != nil {
		return err
	}

	r, err := client.Reserve(ctx, train, booking.ReserveOptions{
		Passengers: c.list(),
		Seat:       policy,
		WindowSeat: c.windowSeat(),
	})
	if err != nil {
		return err
	}
	printReservation(r)
	return nil
}

type StandbyCmd struct {
	Dep string `arg:"" help:"Departure station"`
	Arr string `arg:"" help:"Arrival station"`

	SearchFlags    `embed:""`
	PassengerFlags `embed:""`

	Train            string `help:"Train number; the first standby-eligible train if empty"`
	Seat             string `help:"Seat policy: general_first, general_only, special_first or special_only" default:"general_first"`
	Phone            string `help:"Contact phone number for the standby"`
	AgreeSMS         bool   `help:"Receive an SMS when the standby is confirmed" name:"agree-sms"`
	AgreeClassChange bool   `help:"Accept a different seat class" name:"agree-class-change"`
}

func (c *StandbyCmd) Run(ctx context.Context, g *Globals, logger *logrus.Logger) error {
	policy, err := booking.ParseSeatPolicy(c.Seat)
	if err != nil {
		return err
	}
	if c.AgreeSMS && c.Phone == "" {
		return fmt.Errorf("--agree-sms requires --phone")
	}

	client, logout, err := loggedInClient(ctx, g, logger)
	if err != nil {
		return err
	}
	defer logout()

	trains, err := client.SearchTrain(ctx, c.query(c.Dep, c.Arr, true))
	if err != nil {
		return err
	}
	train, err := pickTrain(trains, c.Train, (*booking.Train).StandbyAvailable)
	if err != nil {
		return err
	}

	r, err := client.ReserveStandby(ctx, train, booking.StandbyOptions{
		Passengers: c.list(),
		Seat:       policy,
		Phone:      c.Phone,
	})
	if err != nil {
		return err
	}
	printReservation(r)

	if c.AgreeSMS || c.AgreeClassChange {
		ok, err := client.ReserveStandbyOptionSettings(ctx, r.Number, c.AgreeSMS, c.AgreeClassChange, c.Phone)
		if err != nil {
			return err
		}
		if !ok {
			logger.WithField("reservation_number", r.Number).Warn("standby options were not accepted")
		}
	}
	return nil
}

type StandbyOptionsCmd struct {
	Number string `arg:"" help:"Reservation number"`

	Phone            string `help:"Phone number for the SMS"`
	AgreeSMS         bool   `help:"Receive an SMS when the standby is confirmed" name:"agree-sms"`
	AgreeClassChange bool   `help:"Accept a different seat class" name:"agree-class-change"`
}

func (c *StandbyOptionsCmd) Run(ctx context.Context, g *Globals, logger *logrus.Logger) error {
	client, logout, err := loggedInClient(ctx, g, logger)
	if err != nil {
		return err
	}
	defer logout()

	ok, err := client.ReserveStandbyOptionSettings(ctx, c.Number, c.AgreeSMS, c.AgreeClassChange, c.Phone)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("standby options for %s were not accepted", c.Number)
	}
	fmt.Printf("standby options updated for %s\n", c.Number)
	return nil
}

type ListCmd struct {
	PaidOnly bool `help:"Only show paid reservations" name:"paid-only"`
}

func (c *ListCmd) Run(ctx context.Context, g *Globals, logger *logrus.Logger) error {
	client, logout, err := loggedInClient(ctx, g, logger)
	if err != nil {
		return err
	}
	defer logout()

	reservations, err := client.GetReservations(ctx, c.PaidOnly)
	if err != nil {
		return err
	}
	if len(reservations) == 0 {
		fmt.Println("no reservations")
	}
	for _, r := range reservations {
		printReservation(r)
	}
	return nil
}

type TicketsCmd struct {
	Number string `arg:"" help:"Reservation number"`
}

func (c *TicketsCmd) Run(ctx context.Context, g *Globals, logger *logrus.Logger) error {
	client, logout, err := loggedInClient(ctx, g, logger)
	if err != nil {
		return err
	}
	defer logout()

	tickets, err := client.TicketInfo(ctx, c.Number)
	if err != nil {
		return err
	}
	for _, t := range tickets {
		fmt.Println(t)
	}
	return nil
}

type CancelCmd struct {
	Number string `arg:"" help:"Reservation number"`
}

func (c *CancelCmd) Run(ctx context.Context, g *Globals, logger *logrus.Logger) error {
	client, logout, err := loggedInClient(ctx, g, logger)
	if err != nil {
		return err
	}
	defer logout()

	if err := client.Cancel(ctx, c.Number); err != nil {
		return err
	}
	fmt.Printf("cancelled %s\n", c.Number)
	return nil
}

type PayCmd struct {
	Number string `arg:"" help:"Reservation number"`

	CardNumber   string `help:"Card number" name:"card-number" env:"SRT_CARD_NUMBER" required:""`
	CardPassword string `help:"First two digits of the card PIN" name:"card-password" env:"SRT_CARD_PASSWORD" required:""`
	Validation   string `help:"Birth date (YYMMDD) or business number" env:"SRT_CARD_VALIDATION" required:""`
	Expiry       string `help:"Card expiry (YYMM)" env:"SRT_CARD_EXPIRY" required:""`
	Installments int    `help:"Installment months, 0 for lump sum" default:"0"`
	Corporate    bool   `help:"Card is a corporate card"`
}

func (c *PayCmd) Run(ctx context.Context, g *Globals, logger *logrus.Logger) error {
	client, logout, err := loggedInClient(ctx, g, logger)
	if err != nil {
		return err
	}
	defer logout()

	reservations, err := client.GetReservations(ctx, false)
	if err != nil {
		return err
	}
	var target *booking.Reservation
	for _, r := range reservations {
		if r.Number == c.Number {
			target = r
			break
		}
	}
	if target == nil {
		return fmt.Errorf("reservation %s not found", c.Number)
	}
	if target.Paid {
		return fmt.Errorf("reservation %s is already paid", c.Number)
	}

	card := booking.Card{
		Number:       c.CardNumber,
		Password:     c.CardPassword,
		Validation:   c.Validation,
		Expiry:       c.Expiry,
		Installments: c.Installments,
		Type:         booking.CardPersonal,
	}
	if c.Corporate {
		card.Type = booking.CardCorporate
	}

	if err := client.PayWithCard(ctx, target, card); err != nil {
		return err
	}
	printReservation(target)
	return nil
}

type WatchCmd struct {
	Config string `help:"Path to config file" default:"config.yaml" type:"path"`
}

func (c *WatchCmd) Run(ctx context.Context, g *Globals, logger *logrus.Logger) error {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return err
	}

	// Get credentials from environment
	pushoverToken := os.Getenv("PUSHOVER_TOKEN")
	pushoverUser := os.Getenv("PUSHOVER_USER")
	if pushoverToken == "" || pushoverUser == "" {
		return fmt.Errorf("PUSHOVER_TOKEN and PUSHOVER_USER environment variables are required")
	}

	client, err := newClient(cfg.BaseURL, cfg.Timeout, g, logger)
	if err != nil {
		return err
	}
	logout, err := login(ctx, client, g, logger)
	if err != nil {
		return err
	}
	defer logout()

	notifier := notify.NewNotifier(pushoverToken, pushoverUser, logger)
	reservationMonitor := monitor.NewReservationMonitor(client, notifier, logger)
	sched := scheduler.NewScheduler(cfg, reservationMonitor, logger)

	names := make([]string, 0, len(cfg.Watches))
	for _, w := range cfg.Watches {
		names = append(names, w.Name)
	}
	logger.WithFields(logrus.Fields{
		"watches":  strings.Join(names, ","),
		"interval": cfg.Interval,
	}).Info("starting srtpal watch")

	sched.Start(ctx)

	select {
	case <-ctx.Done():
	case <-sched.Done():
	}

	// Stop scheduler gracefully
	sched.Stop()
	pending := sched.Pending()
	logger.WithField("pending", strings.Join(pending, ",")).Info("srtpal watch stopped")
	if err := notifier.SendWatchStopped(pending); err != nil {
		logger.WithField("error", err).Warn("failed to send stop notification")
	}
	return nil
}
