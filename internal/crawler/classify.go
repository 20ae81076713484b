package crawler

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"syscall"
)

// errorKind drives the state machine's reaction to a failed attempt.
type errorKind int

const (
	// kindRetryable covers refused, reset, and anything unrecognized:
	// back off and try the same protocol again.
	kindRetryable errorKind = iota
	// kindTimeout is retryable but carries a distinct message.
	kindTimeout
	// kindProtocol abandons the current protocol's remaining attempts and
	// advances to the next one (TLS failures on https).
	kindProtocol
	// kindTerminal abandons everything (unresolvable domain).
	kindTerminal
)

var dnsIndicators = []string{
	"name or service not known",
	"nodename nor servname",
	"getaddrinfo failed",
	"no address associated",
	"[errno -2]",
	"[errno -3]",
	"name resolution",
	"no such host",
}

var tlsIndicators = []string{"ssl", "certificate", "handshake", "tls"}

// classify maps a transport error to its kind and the message recorded in
// the output. Typed errors are checked first; message sniffing catches the
// platform-specific strings wrapped transports tend to produce.
func classify(err error, timeoutSeconds float64) (errorKind, string) {
	// Timeouts outrank the message-based classes: a TLS handshake that
	// timed out is a timeout, not a certificate problem.
	if isTimeout(err) {
		return kindTimeout, fmt.Sprintf("Timeout after %gs", timeoutSeconds)
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return kindTerminal, "DNS error: domain not found"
	}

	msg := strings.ToLower(err.Error())
	for _, ind := range dnsIndicators {
		if strings.Contains(msg, ind) {
			return kindTerminal, "DNS error: domain not found"
		}
	}

	for _, ind := range tlsIndicators {
		if strings.Contains(msg, ind) {
			return kindProtocol, "SSL error"
		}
	}

	if errors.Is(err, syscall.ECONNREFUSED) || strings.Contains(msg, "connection refused") || strings.Contains(msg, "[errno 111]") {
		return kindRetryable, "Connection refused"
	}
	if errors.Is(err, syscall.ECONNRESET) || strings.Contains(msg, "connection reset") || strings.Contains(msg, "[errno 104]") {
		return kindRetryable, "Connection reset"
	}

	return kindRetryable, truncate("Connection error: "+err.Error(), 100)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "timeout")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
