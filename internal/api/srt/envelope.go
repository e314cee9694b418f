package srt

import (
	"github.com/tidwall/gjson"
)

const (
	ResultSuccess = "SUCC"
	ResultFail    = "FAIL"
)

// Envelope is a decoded SRT reply: a status block plus the free-form payload.
type Envelope struct {
	json   gjson.Result
	status gjson.Result
}

// ParseEnvelope decodes body. The status block is resultMap[0]; replies
// carrying only ErrorCode/ErrorMsg, or neither, are protocol errors.
func ParseEnvelope(body []byte) (*Envelope, error) {
	if !gjson.ValidBytes(body) {
		return nil, newError(KindProtocol, "malformed response: %s", truncate(string(body), 200))
	}
	return parse(gjson.ParseBytes(body))
}

// ParseEnvelopeString is ParseEnvelope for an already-read string body.
func ParseEnvelopeString(body string) (*Envelope, error) {
	return ParseEnvelope([]byte(body))
}

func parse(json gjson.Result) (*Envelope, error) {
	if !json.IsObject() {
		return nil, newError(KindProtocol, "unexpected response [%s]", truncate(json.Raw, 200))
	}

	if resultMap := json.Get("resultMap"); resultMap.Exists() {
		return &Envelope{json: json, status: resultMap.Get("0")}, nil
	}

	code, msg := json.Get("ErrorCode"), json.Get("ErrorMsg")
	if code.Exists() && msg.Exists() {
		return nil, newError(KindProtocol, "undefined result status \"[%s]: %s\"", code.String(), msg.String())
	}

	return nil, newError(KindProtocol, "unexpected response [%s]", truncate(json.Raw, 200))
}

// Success reports the status. A missing or unknown status is an error, never
// silently mapped to either outcome.
func (e *Envelope) Success() (bool, error) {
	result := e.status.Get("strResult")
	if !result.Exists() {
		return false, NewProtocolError("response status is not given")
	}
	switch result.String() {
	case ResultSuccess:
		return true, nil
	case ResultFail:
		return false, nil
	default:
		return false, newError(KindProtocol, "undefined result status %q", result.String())
	}
}

// Message returns the status message, or "" if there is none.
func (e *Envelope) Message() string {
	return e.status.Get("msgTxt").String()
}

// Status returns the raw status block.
func (e *Envelope) Status() gjson.Result {
	return e.status
}

// Get queries the payload with a gjson path.
func (e *Envelope) Get(path string) gjson.Result {
	return e.json.Get(path)
}

// Check decodes body and converts a FAIL status into a response error
// carrying the server message.
func Check(body []byte) (*Envelope, error) {
	env, err := ParseEnvelope(body)
	if err != nil {
		return nil, err
	}
	ok, err := env.Success()
	if err != nil {
		return nil, err
	}
	if !ok {
		return env, NewResponseError(env.Message())
	}
	return env, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
