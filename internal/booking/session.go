package booking

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/danpilch/srtpal/internal/api/srt"
)

// LoginType is how the backend should interpret the login identifier.
type LoginType string

const (
	LoginMembershipID LoginType = "1"
	LoginEmail        LoginType = "2"
	LoginPhone        LoginType = "3"
)

var (
	emailPattern = regexp.MustCompile(`[^@]+@[^@]+\.[^@]+`)
	phonePattern = regexp.MustCompile(`(\d{3})-(\d{3,4})-(\d{4})`)
)

// Failure phrases the login endpoint embeds in otherwise normal replies.
const (
	loginUnknownUser   = "존재하지않는 회원입니다"
	loginWrongPassword = "비밀번호 오류"
	loginIPBlocked     = "Your IP Address Blocked due to abnormal access."
)

// classifyID returns the login type for id and the identifier to transmit.
func classifyID(id string) (LoginType, string) {
	switch {
	case emailPattern.MatchString(id):
		return LoginEmail, id
	case phonePattern.MatchString(id):
		return LoginPhone, strings.ReplaceAll(id, "-", "")
	default:
		return LoginMembershipID, id
	}
}

// Session holds the credentials, login state and cookie-carrying transport
// of one SRT user. It is not safe for concurrent use.
type Session struct {
	poster srt.Poster
	logger *logrus.Logger

	id       string
	password string

	loginType        LoginType
	loggedIn         bool
	membershipNumber string
}

func NewSession(poster srt.Poster, id, password string, logger *logrus.Logger) *Session {
	loginType, _ := classifyID(id)
	return &Session{
		poster:    poster,
		logger:    logger,
		id:        id,
		password:  password,
		loginType: loginType,
	}
}

func (s *Session) LoggedIn() bool           { return s.loggedIn }
func (s *Session) LoginType() LoginType     { return s.loginType }
func (s *Session) MembershipNumber() string { return s.membershipNumber }

// Login authenticates; empty arguments reuse the stored credentials.
func (s *Session) Login(ctx context.Context, id, password string) error {
	if id != "" {
		s.id = id
	}
	if password != "" {
		s.password = password
	}

	loginType, loginID := classifyID(s.id)
	s.loginType = loginType

	form := url.Values{
		"auto":          {"Y"},
		"check":         {"Y"},
		"page":          {"menu"},
		"deviceKey":     {"-"},
		"customerYn":    {""},
		"login_referer": {srt.DefaultBaseURL + string(srt.EndpointMain)},
		"srchDvCd":      {string(loginType)},
		"srchDvNm":      {loginID},
		"hmpgPwdCphd":   {s.password},
	}

	resp, err := s.poster.Post(ctx, srt.EndpointLogin, form)
	if err != nil {
		return fmt.Errorf("logging in: %w", err)
	}

	text := string(resp.Body)
	switch {
	case strings.Contains(text, loginUnknownUser), strings.Contains(text, loginWrongPassword):
		msg := gjson.GetBytes(resp.Body, "MSG").String()
		s.clear()
		s.logger.WithField("message", msg).Debug("login rejected")
		return srt.NewLoginError(msg)
	case strings.Contains(text, loginIPBlocked):
		msg := strings.TrimSpace(text)
		s.clear()
		s.logger.WithField("message", msg).Debug("login blocked")
		return srt.NewLoginError(msg)
	}

	user := gjson.GetBytes(resp.Body, "userMap")
	membership := user.Get("MB_CRD_NO").String()
	if membership == "" {
		s.clear()
		return srt.NewProtocolError("login reply carries no membership number")
	}

	s.loggedIn = true
	s.membershipNumber = membership
	s.logger.WithFields(logrus.Fields{
		"login_type": loginType,
		"message":    user.Get("MSG").String(),
	}).Debug("logged in")

	return nil
}

// Logout ends the session. It is a no-op when not logged in.
func (s *Session) Logout(ctx context.Context) error {
	if !s.loggedIn {
		return nil
	}

	resp, err := s.poster.Post(ctx, srt.EndpointLogout, nil)
	if err != nil {
		return fmt.Errorf("logging out: %w", err)
	}
	if !resp.OK() {
		return srt.NewResponseError(fmt.Sprintf("logout failed with status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(resp.Body))))
	}

	s.clear()
	s.logger.Debug("logged out")
	return nil
}

func (s *Session) clear() {
	s.loggedIn = false
	s.membershipNumber = ""
}

func (s *Session) requireLogin() error {
	if !s.loggedIn {
		return srt.NewNotLoggedInError()
	}
	return nil
}
