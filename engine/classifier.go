package engine

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net"
	"net/http"
	"strconv"
	"strings"
	"syscall"

	"github.com/Laisky/errors/v2"

	"github.com/apiprobe/apiprobe/common/network"
)

// Classification is the outcome-derived part of an ExecutionResult.
type Classification struct {
	Success    bool
	StatusCode int
	// UpstreamStatus is the status line actually received, 0 when no response exists.
	UpstreamStatus int
	Headers        map[string]string
	Body           []byte
	Error          *ErrorDetails
}

// Classify maps an outcome to its result fields. A response body is read
// regardless of status. Repeated calls on the same outcome return equal values.
func Classify(o *RawOutcome) Classification {
	if o.Err != nil {
		status := o.Err.Kind.statusCode()
		return Classification{
			StatusCode: status,
			Headers:    map[string]string{},
			Error: &ErrorDetails{
				ErrorType:  o.Err.Kind.String(),
				Message:    o.Err.Error(),
				StatusCode: status,
			},
		}
	}

	resp := o.Response
	headers := flattenHeaders(resp.Header)
	body, err := o.readBody()
	if err != nil {
		return Classification{
			StatusCode:     http.StatusInternalServerError,
			UpstreamStatus: resp.StatusCode,
			Headers:        headers,
			Body:           body,
			Error: &ErrorDetails{
				ErrorType:  ErrorTypeResponse,
				Message:    "Failed to read response body: " + err.Error(),
				StatusCode: http.StatusInternalServerError,
			},
		}
	}

	c := Classification{
		Success:        resp.StatusCode >= 200 && resp.StatusCode < 300,
		StatusCode:     resp.StatusCode,
		UpstreamStatus: resp.StatusCode,
		Headers:        headers,
		Body:           body,
	}
	if !c.Success {
		c.Error = &ErrorDetails{
			ErrorType:  ErrorTypeHTTPStatusError,
			Message:    "HTTP Status Error: " + strconv.Itoa(resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
	}
	return c
}

// flattenHeaders joins repeated values with ", " under the canonical name.
func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for name, values := range h {
		out[http.CanonicalHeaderKey(name)] = strings.Join(values, ", ")
	}
	return out
}

// transportKind decides the category of an error returned by http.Client.Do.
// Timeouts win over connection failures so a dial timeout reports as a timeout.
func transportKind(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	if errors.Is(err, context.Canceled) {
		return KindRequest
	}

	if isConnectionError(err) {
		return KindConnection
	}
	return KindRequest
}

func isConnectionError(err error) bool {
	var (
		dnsErr      *net.DNSError
		opErr       *net.OpError
		recordErr   tls.RecordHeaderError
		verifyErr   *tls.CertificateVerificationError
		authorityEr x509.UnknownAuthorityError
		hostnameErr x509.HostnameError
		invalidErr  x509.CertificateInvalidError
		blockedErr  *network.BlockedAddressError
	)
	switch {
	case errors.As(err, &blockedErr),
		errors.As(err, &dnsErr),
		errors.As(err, &opErr),
		errors.As(err, &recordErr),
		errors.As(err, &verifyErr),
		errors.As(err, &authorityEr),
		errors.As(err, &hostnameErr),
		errors.As(err, &invalidErr):
		return true
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNABORTED),
		errors.Is(err, syscall.EHOSTUNREACH),
		errors.Is(err, syscall.ENETUNREACH):
		return true
	}

	return strings.Contains(err.Error(), "tls: ")
}
