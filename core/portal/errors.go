package portal

import (
	"crypto/tls"
	"net"
	"strings"
	"syscall"

	"github.com/pkg/errors"
)

var (
	// ErrUnauthorized is returned by the client on an HTTP 401; the session
	// controller reacts by discarding all persisted state.
	ErrUnauthorized = errors.New("authentication required")

	// ErrNoChildSelected is returned when a detail view runs without a
	// selected dependent.
	ErrNoChildSelected = errors.New("no child selected")
)

// User-facing texts for the transport-failure taxonomy.
const (
	// MsgServiceUnavailable is shown when the backend itself is unreachable.
	MsgServiceUnavailable = "service unavailable, please contact the administration"
	// MsgConnectionError is the generic fallback for other transport failures.
	MsgConnectionError = "connection error"
)

// ClassifyTransportError converts an error raised by the remote resource
// client into one of the two user-facing transport messages. Unreachable
// backends (refused connections, DNS failures, timeouts, aborted TLS
// handshakes) map to the fixed "service unavailable" text; anything else is
// a generic connection error. Classification goes by error kind first and
// only falls back to matching the wording browsers use for failed fetches,
// so replayed upstream messages still land in the right bucket.
func ClassifyTransportError(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EHOSTUNREACH) {
		return MsgServiceUnavailable
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return MsgServiceUnavailable
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return MsgServiceUnavailable
	}
	var tlsErr *tls.CertificateVerificationError
	if errors.As(err, &tlsErr) {
		return MsgServiceUnavailable
	}

	// wording fallback for errors relayed from fetch-style clients
	msg := err.Error()
	if strings.Contains(msg, "NetworkError") || strings.Contains(msg, "Failed to fetch") {
		return MsgServiceUnavailable
	}
	return MsgConnectionError
}
