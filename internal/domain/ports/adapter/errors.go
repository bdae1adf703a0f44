package adapter

import "errors"

// Inference failure kinds. Adapters wrap these with a human-readable
// remediation hint so handlers can both branch on the kind (errors.Is) and
// forward an actionable message.
var (
	ErrBackendUnavailable = errors.New("inference backend unavailable")
	ErrModelNotFound      = errors.New("model not found on inference backend")
	ErrTimeout            = errors.New("inference backend timed out")
	ErrInvalidResponse    = errors.New("invalid inference backend response")
)

// Kind returns a stable short code for an inference failure, used as a
// metrics label and forwarded to clients as errorCode. Unrecognized errors
// map to "unknown".
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrBackendUnavailable):
		return "ECONNREFUSED"
	case errors.Is(err, ErrModelNotFound):
		return "MODEL_NOT_FOUND"
	case errors.Is(err, ErrTimeout):
		return "ETIMEDOUT"
	case errors.Is(err, ErrInvalidResponse):
		return "INVALID_RESPONSE"
	default:
		return "UNKNOWN"
	}
}
