package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/promptly/client/internal/models"
	"github.com/tidwall/gjson"
)

// errorMessagePaths are probed in order on a failure body. They cover the
// service's own {"message"} shape, the {"error": {"message"}} envelope,
// FastAPI's {"detail"} and a bare {"error": "..."}.
var errorMessagePaths = []string{
	"message",
	"error.message",
	"detail",
	"detail.0.msg",
	"error",
}

// errorMessage extracts a human readable message from a failure body,
// falling back to the status text.
func errorMessage(body []byte, statusCode int) string {
	if len(body) > 0 && gjson.ValidBytes(body) {
		for _, path := range errorMessagePaths {
			v := gjson.GetBytes(body, path)
			if v.Type == gjson.String {
				if msg := strings.TrimSpace(v.Str); msg != "" {
					return msg
				}
			}
		}
	}
	if text := http.StatusText(statusCode); text != "" {
		return fmt.Sprintf("%d %s", statusCode, text)
	}
	return fmt.Sprintf("unexpected status %d", statusCode)
}

// classifyTransportError maps a failure without a usable response to a
// NetworkError.
func classifyTransportError(err error, timeout time.Duration) *models.GenerationError {
	if errors.Is(err, context.Canceled) {
		return models.NewNetworkError("request cancelled", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return models.NewNetworkError(fmt.Sprintf("request timed out after %s", timeout), err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return models.NewNetworkError(fmt.Sprintf("request timed out after %s", timeout), err)
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return models.NewNetworkError("could not resolve service host "+dnsErr.Name, err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return models.NewNetworkError("could not connect to generation service", err)
	}
	return models.NewNetworkError("no response from generation service: "+err.Error(), err)
}
