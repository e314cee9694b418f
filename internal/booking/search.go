package booking

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/danpilch/srtpal/internal/api/srt"
)

const (
	defaultSearchTime = "000000"
	scheduleRowsPath  = "outDataSets.dsOutput1"
)

var (
	datePattern = regexp.MustCompile(`^\d{8}$`)
	timePattern = regexp.MustCompile(`^\d{6}$`)
)

// SearchQuery describes a schedule search. Date is YYYYMMDD and defaults to
// today; Time and TimeLimit are HHMMSS. Sold-out trains are dropped unless
// IncludeSoldOut is set.
type SearchQuery struct {
	Dep            string
	Arr            string
	Date           string
	Time           string
	TimeLimit      string
	IncludeSoldOut bool
}

func (q *SearchQuery) validate() (depCode, arrCode string, err error) {
	depCode, ok := srt.StationCode(q.Dep)
	if !ok {
		return "", "", srt.NewValidationError(fmt.Sprintf("station %q does not exist", q.Dep))
	}
	arrCode, ok = srt.StationCode(q.Arr)
	if !ok {
		return "", "", srt.NewValidationError(fmt.Sprintf("station %q does not exist", q.Arr))
	}
	if q.Date != "" && !datePattern.MatchString(q.Date) {
		return "", "", srt.NewValidationError(fmt.Sprintf("invalid date %q, want YYYYMMDD", q.Date))
	}
	if q.Time != "" && !timePattern.MatchString(q.Time) {
		return "", "", srt.NewValidationError(fmt.Sprintf("invalid time %q, want HHMMSS", q.Time))
	}
	if q.TimeLimit != "" && !timePattern.MatchString(q.TimeLimit) {
		return "", "", srt.NewValidationError(fmt.Sprintf("invalid time limit %q, want HHMMSS", q.TimeLimit))
	}
	return depCode, arrCode, nil
}

// SearchTrain returns SRT trains for the query in departure order.
//
// The backend returns one page per query, so later pages are fetched by
// restarting the search one second after the last departure seen. A FAIL
// status on a later page marks the end of results.
func (c *Client) SearchTrain(ctx context.Context, q SearchQuery) ([]Train, error) {
	depCode, arrCode, err := q.validate()
	if err != nil {
		return nil, err
	}

	date := q.Date
	if date == "" {
		date = c.today()
	}
	cursor := q.Time
	if cursor == "" {
		cursor = defaultSearchTime
	}

	form := url.Values{
		"chtnDvCd":      {"1"},
		"arriveTime":    {"N"},
		"seatAttCd":     {"015"},
		"psgNum":        {"1"},
		"trnGpCd":       {"109"},
		"stlbTrnClsfCd": {"05"},
		"dptDt":         {date},
		"dptTm":         {cursor},
		"arvRsStnCd":    {arrCode},
		"dptRsStnCd":    {depCode},
	}

	env, err := c.postChecked(ctx, srt.EndpointSearchSchedule, form)
	if err != nil {
		return nil, fmt.Errorf("searching trains: %w", err)
	}

	page := env.Get(scheduleRowsPath).Array()
	rows := append([]gjson.Result(nil), page...)

	for pageNo := 2; len(page) > 0; pageNo++ {
		last := page[len(page)-1].Get("dptTm").String()
		next, ok := nextSearchTime(last, cursor)
		if !ok {
			break
		}
		cursor = next
		form.Set("dptTm", cursor)

		resp, err := c.post(ctx, srt.EndpointSearchSchedule, form)
		if err != nil {
			return nil, fmt.Errorf("searching trains: %w", err)
		}
		env, err := srt.ParseEnvelope(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("searching trains: %w", err)
		}
		ok, err = env.Success()
		if err != nil {
			return nil, fmt.Errorf("searching trains: %w", err)
		}
		if !ok {
			c.logger.WithFields(logrus.Fields{
				"page":    pageNo,
				"message": env.Message(),
			}).Debug("no more schedule pages")
			break
		}

		page = env.Get(scheduleRowsPath).Array()
		rows = append(rows, page...)

		c.logger.WithFields(logrus.Fields{
			"page": pageNo,
			"from": cursor,
			"rows": len(page),
		}).Debug("fetched schedule page")
	}

	trains := make([]Train, 0, len(rows))
	for _, row := range rows {
		t := trainFromRow(row)
		if t.Name != srt.TrainNameSRT {
			continue
		}
		if !q.IncludeSoldOut && !t.SeatAvailable() {
			continue
		}
		// HHMMSS is zero padded, so string order is time order.
		if q.TimeLimit != "" && t.DepTime > q.TimeLimit {
			continue
		}
		trains = append(trains, t)
	}

	c.logger.WithFields(logrus.Fields{
		"dep":    q.Dep,
		"arr":    q.Arr,
		"date":   date,
		"rows":   len(rows),
		"trains": len(trains),
	}).Info("train search complete")

	return trains, nil
}

// nextSearchTime returns last+1s as HHMMSS. It reports false when the result
// would not move past cursor (midnight wrap or an out-of-order reply), which
// would otherwise repeat the same page forever.
func nextSearchTime(last, cursor string) (string, bool) {
	if len(last) == 4 {
		last += "00"
	}
	t, err := time.Parse("150405", last)
	if err != nil {
		return "", false
	}
	next := t.Add(time.Second).Format("150405")
	if next <= cursor {
		return "", false
	}
	return next, true
}
