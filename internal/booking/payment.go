package booking

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/danpilch/srtpal/internal/api/srt"
)

// CardType is the card holder kind.
type CardType string

const (
	CardPersonal  CardType = "J"
	CardCorporate CardType = "S"
)

// Card holds the credit card details for a settlement. Validation is the
// holder's birth date (YYMMDD) for personal cards or the business number for
// corporate ones; Expiry is YYMM; Password is the first two PIN digits.
type Card struct {
	Number       string
	Password     string
	Validation   string
	Expiry       string
	Installments int
	Type         CardType
}

var allowedInstallments = map[int]bool{
	0: true, 2: true, 3: true, 4: true, 5: true, 6: true, 7: true,
	8: true, 9: true, 10: true, 11: true, 12: true, 24: true,
}

func (c *Card) validate() error {
	switch {
	case c.Number == "":
		return srt.NewValidationError("card number is required")
	case c.Password == "":
		return srt.NewValidationError("card password is required")
	case c.Validation == "":
		return srt.NewValidationError("card validation number is required")
	case len(c.Expiry) != 4:
		return srt.NewValidationError(fmt.Sprintf("card expiry %q must be YYMM", c.Expiry))
	case !allowedInstallments[c.Installments]:
		return srt.NewValidationError(fmt.Sprintf("unsupported installment count %d", c.Installments))
	case c.Type != "" && c.Type != CardPersonal && c.Type != CardCorporate:
		return srt.NewValidationError(fmt.Sprintf("unknown card type %q", c.Type))
	}
	return nil
}

// PayWithCard settles an unpaid reservation. The payment endpoint reports its
// result in outDataSets.dsOutput0[0] rather than the usual resultMap, so the
// reply is decoded here directly.
func (c *Client) PayWithCard(ctx context.Context, reservation *Reservation, card Card) error {
	if err := c.session.requireLogin(); err != nil {
		return err
	}
	if reservation == nil {
		return srt.NewValidationError("reservation is required")
	}
	if err := card.validate(); err != nil {
		return err
	}
	cardType := card.Type
	if cardType == "" {
		cardType = CardPersonal
	}

	totalCost := strconv.Itoa(reservation.TotalCost)
	form := url.Values{
		"stlDmnDt":        {c.today()},
		"mbCrdNo":         {c.session.MembershipNumber()},
		"stlMnsSqno1":     {"1"},
		"ststlGrdinct":    {"1"},
		"totNewStlAmt":    {totalCost},
		"athnDvCd1":       {string(cardType)},
		"vanPw1":          {card.Password},
		"crdVlidTrm1":     {card.Expiry},
		"stlMnsCd1":       {"02"}, // credit card
		"rsvChgTno":       {"0"},
		"chgMcs":          {"0"},
		"ismtMnthNum1":    {strconv.Itoa(card.Installments)},
		"ctlDvCd":         {"3102"},
		"cgpSId":          {"korail"},
		"pnrNo":           {reservation.Number},
		"totPrnb":         {strconv.Itoa(reservation.SeatCount)},
		"nmsStlAmt1":      {totalCost},
		"crdInPlayCd1":    {"0"},
		"athnVal1":        {card.Validation},
		"stlCrdNo1":       {card.Number},
		"jrnyCnt":         {"1"},
		"strJobId":        {"3102"},
		"inrcmnsGrdinct":  {"1"},
		"dptTm":           {reservation.DepTime},
		"arvTm":           {reservation.ArrTime},
		"dptStnConsOrdr2": {"000000"},
		"arvStnConsOrdr2": {"000000"},
		"trnGpCd":         {"300"},
		"pageNo":          {"-"},
		"rowCnt":          {"-"},
		"pageUrl":         {""},
	}

	resp, err := c.post(ctx, srt.EndpointPayment, form)
	if err != nil {
		return fmt.Errorf("paying reservation %s: %w", reservation.Number, err)
	}
	if !gjson.ValidBytes(resp.Body) {
		return srt.NewProtocolError(fmt.Sprintf("malformed payment response (status %d)", resp.StatusCode))
	}

	result := gjson.GetBytes(resp.Body, "outDataSets.dsOutput0.0")
	if !result.Exists() {
		return srt.NewProtocolError("payment response has no result block")
	}
	status := result.Get("strResult").String()
	if status == srt.ResultFail {
		return srt.NewResponseError(result.Get("msgTxt").String())
	}
	if status != srt.ResultSuccess {
		c.logger.WithFields(logrus.Fields{
			"reservation_number": reservation.Number,
			"status":             status,
		}).Warn("unrecognised payment status, treating as paid")
	}

	reservation.Paid = true
	c.logger.WithFields(logrus.Fields{
		"reservation_number": reservation.Number,
		"amount":             reservation.TotalCost,
		"installments":       card.Installments,
	}).Info("reservation paid")

	return nil
}
