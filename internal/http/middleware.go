package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const DeviceHeader = "X-Device-ID"

type contextKey string

const deviceIDKey contextKey = "device_id"

// DeviceMiddleware identifies the calling device. A request without an id
// is assigned a fresh one, echoed back so the UI can keep it.
func DeviceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deviceID := strings.TrimSpace(r.Header.Get(DeviceHeader))
		if deviceID == "" || len(deviceID) > 128 {
			deviceID = uuid.NewString()
		}
		w.Header().Set(DeviceHeader, deviceID)
		ctx := context.WithValue(r.Context(), deviceIDKey, deviceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func deviceIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(deviceIDKey).(string); ok {
		return id
	}
	return ""
}
