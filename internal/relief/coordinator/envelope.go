package coordinator

import "encoding/json"

// Envelope is the uniform response body. Key and ID are set on successful
// creates and render as "<key>": id next to the message.
type Envelope struct {
	Success bool
	Message string
	Data    any
	Key     string
	ID      int64
}

func (e Envelope) MarshalJSON() ([]byte, error) {
	body := map[string]any{"success": e.Success}
	if e.Message != "" {
		body["message"] = e.Message
	}
	if e.Data != nil {
		body["data"] = e.Data
	}
	if e.Key != "" {
		body[e.Key] = e.ID
	}
	return json.Marshal(body)
}

// Response pairs an envelope with its HTTP status.
type Response struct {
	Status   int
	Envelope Envelope
}
