package httpapi

import "net/http"

// Authentication itself is an external collaborator (spec §1 "Out of
// scope"); the core only needs an opaque user/device identity per
// request, which it treats as two strings (spec §5 "the orchestrator
// treats identity as opaque"). A real deployment terminates auth upstream
// and forwards these headers; there's nothing for this package to verify.
const (
	headerUserID   = "X-User-Id"
	headerDeviceID = "X-Device-Id"
)

func identityFrom(r *http.Request) (userID, deviceID string) {
	return r.Header.Get(headerUserID), r.Header.Get(headerDeviceID)
}
