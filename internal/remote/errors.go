package remote

import (
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// Error is a failure reported by the remote service itself, as opposed to a
// transport failure. Message is the text raised by the procedure.
type Error struct {
	Status  int
	Code    string
	Message string
	Details string
	Hint    string
}

func (e *Error) Error() string {
	return e.Message
}

func parseError(status int, body []byte) *Error {
	e := &Error{Status: status}

	if gjson.ValidBytes(body) {
		res := gjson.ParseBytes(body)
		e.Code = res.Get("code").String()
		e.Details = res.Get("details").String()
		e.Hint = res.Get("hint").String()
		for _, field := range []string{"message", "error_description", "msg", "error"} {
			if msg := res.Get(field).String(); msg != "" {
				e.Message = msg
				break
			}
		}
	}

	if e.Message == "" {
		e.Message = fmt.Sprintf("remote service returned %d %s", status, http.StatusText(status))
	}
	return e
}
