package booking

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/danpilch/srtpal/internal/api/srt"
)

const statusDropConnection = -1

type fakeReply struct {
	status int
	body   string
}

type fakeRequest struct {
	endpoint srt.Endpoint
	form     url.Values
}

// fakeSRT answers each endpoint with queued replies in order and records the
// posted forms.
type fakeSRT struct {
	t *testing.T

	mu       sync.Mutex
	replies  map[srt.Endpoint][]fakeReply
	requests []fakeRequest
}

func newFakeSRT(t *testing.T) (*fakeSRT, *srt.Client) {
	t.Helper()
	f := &fakeSRT{t: t, replies: make(map[srt.Endpoint][]fakeReply)}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	client, err := srt.NewClient(srv.URL, 5*time.Second)
	require.NoError(t, err)
	return f, client
}

func (f *fakeSRT) reply(endpoint srt.Endpoint, body string) {
	f.replyStatus(endpoint, http.StatusOK, body)
}

func (f *fakeSRT) replyStatus(endpoint srt.Endpoint, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[endpoint] = append(f.replies[endpoint], fakeReply{status: status, body: body})
}

// dropConnection makes the next request to endpoint fail at the transport
// level by closing the connection without a reply.
func (f *fakeSRT) dropConnection(endpoint srt.Endpoint) {
	f.replyStatus(endpoint, statusDropConnection, "")
}

func (f *fakeSRT) requestsTo(endpoint srt.Endpoint) []url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	var forms []url.Values
	for _, r := range f.requests {
		if r.endpoint == endpoint {
			forms = append(forms, r.form)
		}
	}
	return forms
}

func (f *fakeSRT) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		f.t.Errorf("parsing form: %v", err)
	}
	endpoint := srt.Endpoint(r.URL.Path)

	f.mu.Lock()
	f.requests = append(f.requests, fakeRequest{endpoint: endpoint, form: r.PostForm})
	queue := f.replies[endpoint]
	if len(queue) == 0 {
		f.mu.Unlock()
		f.t.Errorf("unexpected request to %s", endpoint)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	next := queue[0]
	f.replies[endpoint] = queue[1:]
	f.mu.Unlock()

	if next.status == statusDropConnection {
		conn, _, err := w.(http.Hijacker).Hijack()
		if err != nil {
			f.t.Errorf("hijacking connection: %v", err)
			return
		}
		conn.Close()
		return
	}

	w.WriteHeader(next.status)
	io.WriteString(w, next.body)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

var testNow = time.Date(2026, 10, 19, 7, 0, 0, 0, time.Local)

func newTestClient(t *testing.T, id string) (*Client, *fakeSRT) {
	t.Helper()
	f, transport := newFakeSRT(t)
	logger := testLogger()
	client := NewClient(NewSession(transport, id, "secret", logger), logger)
	client.now = func() time.Time { return testNow }
	return client, f
}

func loggedInClient(t *testing.T) (*Client, *fakeSRT) {
	t.Helper()
	client, f := newTestClient(t, "010-1234-5678")
	f.reply(srt.EndpointLogin, loginSuccessBody)
	require.NoError(t, client.Session().Login(context.Background(), "", ""))
	return client, f
}

const (
	loginSuccessBody       = `{"userMap":{"MB_CRD_NO":"1234567890","MSG":"정상적으로 로그인 되었습니다."}}`
	loginNoUserBody        = `{"MSG":"존재하지않는 회원입니다.","strResult":"FAIL"}`
	loginWrongPasswordBody = `{"MSG":"비밀번호 오류입니다. (1회)","strResult":"FAIL"}`
	loginIPBlockedBody     = "\n  Your IP Address Blocked due to abnormal access.\n"
)

func trainRow(code, number, depTime, general, special, wait string) string {
	return fmt.Sprintf(`{"stlbTrnClsfCd":%q,"trnNo":%q,"dptDt":"20261019","dptTm":%q,"dptRsStnCd":"0551",`+
		`"arvDt":"20261019","arvTm":"235900","arvRsStnCd":"0020","gnrmRsvPsbStr":%q,"sprmRsvPsbStr":%q,`+
		`"rsvWaitPsbCd":%q,"dptStnRunOrdr":"000001","dptStnConsOrdr":"000002","arvStnRunOrdr":"000010","arvStnConsOrdr":"000011"}`,
		code, number, depTime, general, special, wait)
}

func srtRow(number, depTime string) string {
	return trainRow("17", number, depTime, "예약가능", "예약가능", "-1")
}

func schedulePage(rows ...string) string {
	return `{"resultMap":[{"strResult":"SUCC","msgTxt":"조회되었습니다."}],"outDataSets":{"dsOutput1":[` +
		strings.Join(rows, ",") + `]}}`
}

func failBody(msg string) string {
	return fmt.Sprintf(`{"resultMap":[{"strResult":"FAIL","msgTxt":%q}]}`, msg)
}

const okBody = `{"resultMap":[{"strResult":"SUCC","msgTxt":"처리되었습니다."}]}`

func reserveSuccessBody(number string) string {
	return fmt.Sprintf(`{"resultMap":[{"strResult":"SUCC","msgTxt":"예약되었습니다."}],"reservListMap":[{"pnrNo":%q}]}`, number)
}

func reservationListBody(numbers ...string) string {
	var trains, pays []string
	for _, n := range numbers {
		trains = append(trains, fmt.Sprintf(`{"pnrNo":%q,"rcvdAmt":"52900","tkSpecNum":"1"}`, n))
		pays = append(pays, `{"stlbTrnClsfCd":"17","trnNo":"00305","dptDt":"20261019","dptTm":"083000",`+
			`"dptRsStnCd":"0551","arvTm":"105000","arvRsStnCd":"0020","iseLmtDt":"20261019","iseLmtTm":"091000","stlFlg":"N"}`)
	}
	return `{"resultMap":[{"strResult":"SUCC"}],"trainListMap":[` + strings.Join(trains, ",") +
		`],"payListMap":[` + strings.Join(pays, ",") + `]}`
}

const ticketInfoBody = `{"resultMap":[{"strResult":"SUCC"}],"trainListMap":[` +
	`{"scarNo":"5","seatNo":"7A","psrmClCd":"1","psgTpCd":"1","rcvdAmt":"52900","stdrPrc":"53500","dcntPrc":"600"}]}`
