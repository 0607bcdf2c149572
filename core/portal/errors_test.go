package portal

import (
	"net"
	"syscall"
	"testing"

	"github.com/pkg/errors"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "context deadline exceeded" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestClassifyTransportError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{
			"connection refused",
			&net.OpError{Op: "dial", Err: syscall.ECONNREFUSED},
			MsgServiceUnavailable,
		},
		{
			"connection reset",
			errors.Wrap(syscall.ECONNRESET, "http do"),
			MsgServiceUnavailable,
		},
		{
			"host unreachable",
			&net.OpError{Op: "dial", Err: syscall.EHOSTUNREACH},
			MsgServiceUnavailable,
		},
		{
			"dns failure",
			&net.DNSError{Err: "no such host", Name: "school.example.com"},
			MsgServiceUnavailable,
		},
		{
			"timeout",
			errors.Wrap(timeoutError{}, "http do"),
			MsgServiceUnavailable,
		},
		{
			"relayed fetch wording",
			errors.New("NetworkError when attempting to fetch resource."),
			MsgServiceUnavailable,
		},
		{
			"relayed chrome wording",
			errors.New("Failed to fetch"),
			MsgServiceUnavailable,
		},
		{
			"anything else",
			errors.New("unexpected EOF"),
			MsgConnectionError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyTransportError(tt.err); got != tt.want {
				t.Errorf("ClassifyTransportError() = %q; want %q", got, tt.want)
			}
		})
	}
}
