package engine

import (
	"github.com/goliatone/go-widgetflow/pkg/echo"
)

// Response is a widget-type specific response payload.
type Response map[string]any

// SkipResponse marks a widget the user skipped.
func SkipResponse() Response {
	return Response{echo.KeySkipped: true}
}

// AcknowledgeResponse marks a display widget the user moved past.
func AcknowledgeResponse() Response {
	return Response{echo.KeyAcknowledged: true}
}

// IsSkip reports whether r is a skip marker.
func (r Response) IsSkip() bool {
	return echo.IsSkip(r)
}

// Text extracts the human-readable form of r.
func (r Response) Text() string {
	return echo.Text(r)
}

// responseFrom wraps an arbitrary event payload or queried value. Maps are
// taken as-is; anything else lands under "value". A nil payload yields nil.
func responseFrom(payload any) Response {
	switch typed := payload.(type) {
	case nil:
		return nil
	case Response:
		return cloneResponse(typed)
	case map[string]any:
		return cloneResponse(typed)
	default:
		return Response{echo.KeyValue: typed}
	}
}

func cloneResponse(src map[string]any) Response {
	out := make(Response, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
