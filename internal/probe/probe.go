package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultPort    = 22
	DefaultTimeout = 2 * time.Second
)

// FailReason categorizes why a port could not be reached.
type FailReason int

const (
	FailUnknown FailReason = iota
	FailTimeout
	FailRefused
	FailUnreachable
	FailDNS
	FailInvalidAddress
)

func (r FailReason) String() string {
	switch r {
	case FailTimeout:
		return "connection timed out"
	case FailRefused:
		return "connection refused"
	case FailUnreachable:
		return "host unreachable"
	case FailDNS:
		return "name resolution failed"
	case FailInvalidAddress:
		return "invalid address"
	default:
		return "unknown error"
	}
}

// ConnectivityError reports a failed reachability check.
type ConnectivityError struct {
	Address string
	Reason  FailReason
	Cause   error
}

func (e *ConnectivityError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("reach %s: %s (%v)", e.Address, e.Reason, e.Cause)
	}
	return fmt.Sprintf("reach %s: %s", e.Address, e.Reason)
}

func (e *ConnectivityError) Unwrap() error { return e.Cause }

// CheckPort reports whether a TCP connection to address:port can be opened
// within timeout. Every failure mode yields false.
func CheckPort(ctx context.Context, address string, port int, timeout time.Duration) bool {
	return Dial(ctx, address, port, timeout) == nil
}

// Dial opens and immediately closes one TCP connection to address:port.
// The timeout applies to this attempt only.
func Dial(ctx context.Context, address string, port int, timeout time.Duration) error {
	target := net.JoinHostPort(address, strconv.Itoa(port))
	if address == "" || port <= 0 || port > 65535 {
		return &ConnectivityError{Address: target, Reason: FailInvalidAddress}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", target)
	if err != nil {
		return &ConnectivityError{Address: target, Reason: categorize(err), Cause: err}
	}
	_ = conn.Close()
	return nil
}

// SplitHostPort splits an optional ":port" suffix off host. Hosts without a
// port get DefaultPort.
func SplitHostPort(host string) (string, int, error) {
	h, p, err := net.SplitHostPort(host)
	if err != nil {
		return strings.Trim(host, "[]"), DefaultPort, nil
	}
	port, err := strconv.Atoi(p)
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, fmt.Errorf("invalid port in %q", host)
	}
	return h, port, nil
}

func categorize(err error) FailReason {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return FailTimeout
		}
		return FailDNS
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailTimeout
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "connection refused"):
		return FailRefused
	case strings.Contains(errStr, "no route to host"),
		strings.Contains(errStr, "network is unreachable"),
		strings.Contains(errStr, "host is down"):
		return FailUnreachable
	case strings.Contains(errStr, "no such host"), strings.Contains(errStr, "missing port"):
		return FailDNS
	}
	return FailUnknown
}
