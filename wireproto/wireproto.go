// Package wireproto implements the comma-delimited ASCII command grammar
// shared by the Client Connector and Session Proxy, per spec §4.9 and
// §4.10.
package wireproto

import "strings"

// ReturnCode is one of the Session Proxy's reply status codes, per spec
// §4.10.
type ReturnCode int

const (
	Success ReturnCode = iota
	InvalidRequestParameters
	CreationError
	AuthenticationError
)

// Request is a parsed comma-delimited command: Command is the first
// field, Args is everything after it.
type Request struct {
	Command string
	Args    []string
}

// ParseRequest splits raw on commas. An empty raw parses to a Request
// with an empty Command and no args; callers treat that as unknown.
func ParseRequest(raw string) Request {
	fields := strings.Split(raw, ",")
	if len(fields) == 0 {
		return Request{}
	}
	return Request{Command: fields[0], Args: fields[1:]}
}

// FormatReply joins code and parts into the comma-delimited reply shape
// used throughout §4.10, e.g. FormatReply(Success, secret) -> "0,<secret>".
func FormatReply(code ReturnCode, parts ...string) string {
	fields := make([]string, 0, len(parts)+1)
	fields = append(fields, itoa(code))
	fields = append(fields, parts...)
	return strings.Join(fields, ",")
}

// Join concatenates parts with commas, for the replies that aren't
// ReturnCode-prefixed (pong, pang, status, list rows).
func Join(parts ...string) string {
	return strings.Join(parts, ",")
}

func itoa(code ReturnCode) string {
	switch code {
	case Success:
		return "0"
	case InvalidRequestParameters:
		return "1"
	case CreationError:
		return "2"
	case AuthenticationError:
		return "3"
	default:
		return "1"
	}
}
