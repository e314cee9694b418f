package booking

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/danpilch/srtpal/internal/api/srt"
)

// Client runs searches, reservations and payments on behalf of a Session.
// Calls are sequential; callers must not share one Client across goroutines.
type Client struct {
	session *Session
	logger  *logrus.Logger
	now     func() time.Time
}

func NewClient(session *Session, logger *logrus.Logger) *Client {
	return &Client{
		session: session,
		logger:  logger,
		now:     time.Now,
	}
}

func (c *Client) Session() *Session {
	return c.session
}

func (c *Client) post(ctx context.Context, endpoint srt.Endpoint, form url.Values) (*srt.Response, error) {
	resp, err := c.session.poster.Post(ctx, endpoint, form)
	if err != nil {
		return nil, fmt.Errorf("posting %s: %w", endpoint, err)
	}
	return resp, nil
}

// postChecked posts and decodes the reply, turning a FAIL status into a
// response error.
func (c *Client) postChecked(ctx context.Context, endpoint srt.Endpoint, form url.Values) (*srt.Envelope, error) {
	resp, err := c.post(ctx, endpoint, form)
	if err != nil {
		return nil, err
	}
	env, err := srt.Check(resp.Body)
	if err != nil {
		return nil, err
	}
	c.logger.WithFields(logrus.Fields{
		"endpoint": endpoint,
		"message":  env.Message(),
	}).Debug("request succeeded")
	return env, nil
}

func (c *Client) today() string {
	return c.now().Format("20060102")
}
