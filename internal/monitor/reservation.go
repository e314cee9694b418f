package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/danpilch/srtpal/internal/api/srt"
	"github.com/danpilch/srtpal/internal/booking"
	"github.com/danpilch/srtpal/internal/config"
)

// Booker is the part of booking.Client a watch needs.
type Booker interface {
	SearchTrain(ctx context.Context, q booking.SearchQuery) ([]booking.Train, error)
	Reserve(ctx context.Context, train *booking.Train, opts booking.ReserveOptions) (*booking.Reservation, error)
	ReserveStandby(ctx context.Context, train *booking.Train, opts booking.StandbyOptions) (*booking.Reservation, error)
	ReserveStandbyOptionSettings(ctx context.Context, reservationNumber string, agreeSMS, agreeClassChange bool, phone string) (bool, error)
}

type Notifier interface {
	SendReserved(watch string, r *booking.Reservation) error
	SendStandby(watch string, r *booking.Reservation, optionsAccepted bool) error
	SendUnverified(watch string, train *booking.Train, cause error) error
}

// ReservationMonitor checks watches and reserves the first train that fits.
// A satisfied watch is never booked twice.
type ReservationMonitor struct {
	booker   Booker
	notifier Notifier
	logger   *logrus.Logger

	mu        sync.Mutex
	satisfied map[string]*booking.Reservation
}

func NewReservationMonitor(booker Booker, notifier Notifier, logger *logrus.Logger) *ReservationMonitor {
	return &ReservationMonitor{
		booker:    booker,
		notifier:  notifier,
		logger:    logger,
		satisfied: make(map[string]*booking.Reservation),
	}
}

// Reservation returns the reservation made for a watch, if any.
func (m *ReservationMonitor) Reservation(watch string) (*booking.Reservation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.satisfied[watch]
	return r, ok
}

func (m *ReservationMonitor) markSatisfied(watch string, r *booking.Reservation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.satisfied[watch] = r
}

// Check runs one search for w and tries to reserve. It reports true once the
// watch holds a reservation.
func (m *ReservationMonitor) Check(ctx context.Context, w config.Watch) (bool, error) {
	if _, ok := m.Reservation(w.Name); ok {
		return true, nil
	}

	log := m.logger.WithFields(logrus.Fields{
		"watch": w.Name,
		"from":  w.From,
		"to":    w.To,
		"date":  w.Date,
	})
	log.Debug("checking watch")

	trains, err := m.booker.SearchTrain(ctx, w.Query())
	if err != nil {
		if errors.Is(err, srt.ErrResponse) {
			// no schedule rows for the window yet
			log.WithField("error", err).Info("search returned no trains")
			return false, nil
		}
		return false, fmt.Errorf("searching trains: %w", err)
	}

	passengers := w.PassengerList()

	for i := range trains {
		train := &trains[i]
		if !w.Seat.Satisfiable(train) {
			continue
		}

		r, err := m.booker.Reserve(ctx, train, booking.ReserveOptions{
			Passengers: passengers,
			Seat:       w.Seat,
			WindowSeat: w.WindowSeat,
		})
		if err != nil {
			if done, err := m.handleReserveError(w, train, err); done || err != nil {
				return done, err
			}
			continue
		}

		m.markSatisfied(w.Name, r)
		log.WithFields(logrus.Fields{
			"reservation_number": r.Number,
			"train_number":       train.Number,
			"dep_time":           train.DepTime,
		}).Info("seat reserved")

		if err := m.notifier.SendReserved(w.Name, r); err != nil {
			return true, fmt.Errorf("sending reservation notification: %w", err)
		}
		return true, nil
	}

	if w.Standby {
		return m.tryStandby(ctx, w, trains, passengers, log)
	}

	log.WithField("trains", len(trains)).Info("no seats available")
	return false, nil
}

func (m *ReservationMonitor) tryStandby(ctx context.Context, w config.Watch, trains []booking.Train, passengers []booking.Passenger, log *logrus.Entry) (bool, error) {
	for i := range trains {
		train := &trains[i]
		if !train.StandbyAvailable() {
			continue
		}

		r, err := m.booker.ReserveStandby(ctx, train, booking.StandbyOptions{
			Passengers: passengers,
			Seat:       w.Seat,
			Phone:      w.StandbyPhone,
		})
		if err != nil {
			if done, err := m.handleReserveError(w, train, err); done || err != nil {
				return done, err
			}
			continue
		}

		m.markSatisfied(w.Name, r)

		accepted, err := m.booker.ReserveStandbyOptionSettings(ctx, r.Number, w.AgreeSMS, w.AgreeClassChange, w.StandbyPhone)
		if err != nil {
			log.WithFields(logrus.Fields{
				"reservation_number": r.Number,
				"error":              err,
			}).Warn("failed to submit standby options")
		}

		log.WithFields(logrus.Fields{
			"reservation_number": r.Number,
			"train_number":       train.Number,
			"options_accepted":   accepted,
		}).Info("standby reserved")

		if err := m.notifier.SendStandby(w.Name, r, accepted); err != nil {
			return true, fmt.Errorf("sending standby notification: %w", err)
		}
		return true, nil
	}

	log.WithField("trains", len(trains)).Info("no seats or standby available")
	return false, nil
}

// handleReserveError decides whether a failed attempt ends this check.
// A server rejection moves on to the next train; an accepted but unverified
// reservation stops the watch so it is not booked again.
func (m *ReservationMonitor) handleReserveError(w config.Watch, train *booking.Train, err error) (bool, error) {
	log := m.logger.WithFields(logrus.Fields{
		"watch":        w.Name,
		"train_number": train.Number,
		"error":        err,
	})

	if errors.Is(err, srt.ErrResponse) {
		log.Info("reservation rejected, trying next train")
		return false, nil
	}

	if kind, ok := srt.KindOf(err); ok && kind == srt.KindBase {
		m.markSatisfied(w.Name, nil)
		log.Error("reservation could not be verified, stopping watch")
		if notifyErr := m.notifier.SendUnverified(w.Name, train, err); notifyErr != nil {
			return true, fmt.Errorf("sending unverified notification: %w", notifyErr)
		}
		return true, nil
	}

	return false, fmt.Errorf("reserving train %s: %w", train.Number, err)
}
