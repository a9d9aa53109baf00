package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestRateLimit(t *testing.T) {
	tests := []struct {
		name      string
		rps       float64
		burst     int
		requests  int
		wantOK    int
		wantLimit int
	}{
		{"burst admits first requests", 0.001, 3, 5, 3, 2},
		{"zero burst falls back to one", 0.001, 0, 3, 1, 2},
		{"burst defaults to rps", 2, 0, 4, 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			wrapped := RateLimit(tt.rps, tt.burst, zap.NewNop())(okHandler())
			var ok, limited int

			// Act
			for i := 0; i < tt.requests; i++ {
				rr := httptest.NewRecorder()
				wrapped.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/products", nil))
				switch rr.Code {
				case http.StatusOK:
					ok++
				case http.StatusTooManyRequests:
					limited++
					if rr.Header().Get("Retry-After") == "" {
						t.Error("throttled response has no Retry-After header")
					}
				default:
					t.Fatalf("unexpected status %d", rr.Code)
				}
			}

			// Assert
			if ok != tt.wantOK || limited != tt.wantLimit {
				t.Errorf("ok = %d, limited = %d, want %d and %d", ok, limited, tt.wantOK, tt.wantLimit)
			}
		})
	}
}
