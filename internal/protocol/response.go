package protocol

import "encoding/json"

// Status is the top-level result discriminator in a Response.
type Status string

const (
	StatusOk    Status = "Ok"
	StatusError Status = "Error"
)

// Response is the JSON object written back for every request, followed by
// a single newline.
type Response struct {
	Status Status `json:"status"`
	Result string `json:"result,omitempty"`
	Mesg   string `json:"mesg,omitempty"`
}

// OK builds a successful response. result is omitted from the encoding for
// commands that carry no payload (PUT, DELETE, START, COMMIT, ROLLBACK).
func OK(result string) Response {
	return Response{Status: StatusOk, Result: result}
}

// Err builds an error response carrying a human-readable reason.
func Err(mesg string) Response {
	return Response{Status: StatusError, Mesg: mesg}
}

// Encode renders r as a single JSON line terminated by '\n'.
func (r Response) Encode() ([]byte, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}
