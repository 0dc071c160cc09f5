package handlers

import (
	"net/http"
	"strconv"

	"github.com/username/coinsensei/backend/src/logger"
)

// getUserID reads the caller's user id from the X-User-ID header.
// Authentication itself lives in front of this service; by the time a
// request reaches these handlers the header is trusted.
func getUserID(r *http.Request) (int64, bool) {
	raw := r.Header.Get("X-User-ID")
	if raw == "" {
		return 0, false
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		logger.L.Debug("Rejecting malformed X-User-ID header", "value", raw)
		return 0, false
	}
	return userID, true
}
