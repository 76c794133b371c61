package panel

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
)

// ErrMissingLinkDetails marks a created client whose connection link could
// not be generated because the plan or server lacks protocol/domain/port.
var ErrMissingLinkDetails = errors.New("plan or server is missing connection details")

// ErrClientNotFound marks a vendor-reported "client not found" condition so
// callers can tell it apart from generic failures.
var ErrClientNotFound = errors.New("client not found on panel")

// classifyNetworkError turns a transport-level failure into a distinct
// human-readable message per failure class: host-not-found, connection
// refused, timeout, or a generic network error.
func classifyNetworkError(err error, host string) string {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return fmt.Sprintf("host not found: %s", host)
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return fmt.Sprintf("connection refused: %s", host)
	}
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return fmt.Sprintf("connection to %s timed out", host)
	}
	return fmt.Sprintf("network error while reaching %s: %v", host, err)
}
