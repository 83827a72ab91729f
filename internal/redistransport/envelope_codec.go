package redistransport

import (
	"encoding/json"

	"github.com/flyingrobots/gbe/internal/transport"
)

func marshalEnvelope(e transport.Envelope) (string, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalEnvelope(s string) (transport.Envelope, error) {
	var e transport.Envelope
	err := json.Unmarshal([]byte(s), &e)
	return e, err
}
