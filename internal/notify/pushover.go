package notify

import (
	"fmt"
	"strings"

	"github.com/gregdel/pushover"
	"github.com/sirupsen/logrus"

	"github.com/danpilch/srtpal/internal/booking"
)

const (
	PriorityNormal = 0
	PriorityHigh   = 1
)

type Notifier struct {
	app       *pushover.Pushover
	recipient *pushover.Recipient
	logger    *logrus.Logger
}

func NewNotifier(token, userKey string, logger *logrus.Logger) *Notifier {
	return &Notifier{
		app:       pushover.New(token),
		recipient: pushover.NewRecipient(userKey),
		logger:    logger,
	}
}

func (n *Notifier) Send(title, message string) error {
	return n.SendWithPriority(title, message, PriorityNormal)
}

func (n *Notifier) SendWithPriority(title, message string, priority int) error {
	msg := pushover.NewMessageWithTitle(message, title)
	msg.Priority = priority

	resp, err := n.app.SendMessage(msg, n.recipient)
	if err != nil {
		return fmt.Errorf("sending pushover notification: %w", err)
	}

	n.logger.WithFields(logrus.Fields{
		"title":      title,
		"status":     resp.Status,
		"request_id": resp.ID,
	}).Debug("notification sent")

	return nil
}

// SendReserved reports a verified seat reservation that still has to be paid.
func (n *Notifier) SendReserved(watch string, r *booking.Reservation) error {
	title, body := reservedMessage(watch, r)
	return n.SendWithPriority(title, body, PriorityHigh)
}

func (n *Notifier) SendStandby(watch string, r *booking.Reservation, optionsAccepted bool) error {
	title, body := standbyMessage(watch, r, optionsAccepted)
	return n.SendWithPriority(title, body, PriorityHigh)
}

// SendUnverified reports a reservation the server accepted but that could not
// be confirmed in the reservation listing.
func (n *Notifier) SendUnverified(watch string, train *booking.Train, cause error) error {
	title, body := unverifiedMessage(watch, train, cause)
	return n.SendWithPriority(title, body, PriorityHigh)
}

// SendWatchStopped reports the end of a watch run.
func (n *Notifier) SendWatchStopped(pending []string) error {
	title, body := stoppedMessage(pending)
	return n.Send(title, body)
}

func reservedMessage(watch string, r *booking.Reservation) (string, string) {
	title := "SRT Reserved"
	body := fmt.Sprintf("%s: reservation %s\n%s", watch, r.Number, r)
	for _, t := range r.Tickets {
		body += "\n" + t.String()
	}
	return title, body
}

func standbyMessage(watch string, r *booking.Reservation, optionsAccepted bool) (string, string) {
	title := "SRT Standby Placed"
	body := fmt.Sprintf("%s: standby reservation %s\n%s", watch, r.Number, r)
	if !optionsAccepted {
		body += "\nStandby SMS/class change options were not accepted, check the app."
	}
	return title, body
}

func unverifiedMessage(watch string, train *booking.Train, cause error) (string, string) {
	title := "SRT Reservation Unverified"
	body := fmt.Sprintf("%s: train %s was accepted but could not be verified, check your reservations.\n%v",
		watch, train.Number, cause)
	return title, body
}

func stoppedMessage(pending []string) (string, string) {
	title := "SRT Watch Stopped"
	if len(pending) == 0 {
		return title, "All watches finished."
	}
	return title, fmt.Sprintf("Stopped with %d pending: %s", len(pending), strings.Join(pending, ", "))
}
