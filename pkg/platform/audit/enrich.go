package audit

import (
	"context"

	"github.com/mssola/useragent"

	"talaty/pkg/requestcontext"
)

// Enrich fills request metadata the caller left empty: request id, client IP,
// and a parsed browser/os from the user agent.
func Enrich(ctx context.Context, event Event) Event {
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.IP == "" {
		event.IP = requestcontext.ClientIP(ctx)
	}
	if raw := requestcontext.UserAgent(ctx); raw != "" && event.Browser == "" {
		ua := useragent.New(raw)
		name, version := ua.Browser()
		if name != "" {
			event.Browser = name
			if version != "" {
				event.Browser = name + " " + version
			}
		}
		event.OS = ua.OS()
	}
	return event
}
