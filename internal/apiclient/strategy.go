package apiclient

import (
	"errors"
	"net/http"
	"net/http/cookiejar"
	"time"

	"golang.org/x/net/publicsuffix"
)

// ErrInboundRequestRequired is raised by the SSR strategy when it is used
// without the request being served.
var ErrInboundRequestRequired = errors.New("apiclient: SSR strategy requires the inbound request")

// Strategy decides how outgoing requests are authenticated. PrepareHeaders
// builds the base header set for one call; HTTPClient adapts the transport
// once, when the Client is built.
type Strategy interface {
	PrepareHeaders(inbound *http.Request) http.Header
	HTTPClient(base *http.Client) *http.Client
}

type ssrStrategy struct{}

// SSR forwards every header of the inbound request, cookies included, so the
// backend sees the original caller. Using it without an inbound request is a
// programming error and panics with ErrInboundRequestRequired.
func SSR() Strategy {
	return ssrStrategy{}
}

func (ssrStrategy) PrepareHeaders(inbound *http.Request) http.Header {
	if inbound == nil {
		panic(ErrInboundRequestRequired)
	}
	return CopyHeaders(inbound)
}

func (ssrStrategy) HTTPClient(base *http.Client) *http.Client {
	return base
}

type browserStrategy struct {
	jar http.CookieJar
}

// Browser keeps its own cookie jar: cookies set by the backend are stored and
// sent back on later calls. Inbound requests are ignored.
func Browser() Strategy {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		panic(err)
	}
	return browserStrategy{jar: jar}
}

func (browserStrategy) PrepareHeaders(*http.Request) http.Header {
	return http.Header{}
}

func (b browserStrategy) HTTPClient(base *http.Client) *http.Client {
	c := *base
	c.Jar = b.jar
	return &c
}

type directStrategy struct {
	header  http.Header
	timeout time.Duration
}

// DirectOption configures the Direct strategy.
type DirectOption func(*directStrategy)

// WithBearerToken authenticates every call with an Authorization header.
func WithBearerToken(token string) DirectOption {
	return func(d *directStrategy) {
		d.header.Set("Authorization", "Bearer "+token)
	}
}

// WithHeader adds a static header to every call.
func WithHeader(key, value string) DirectOption {
	return func(d *directStrategy) {
		d.header.Add(key, value)
	}
}

// WithTimeout bounds each call, including reading the response body.
func WithTimeout(timeout time.Duration) DirectOption {
	return func(d *directStrategy) {
		d.timeout = timeout
	}
}

// Direct is used by processes that have no inbound request, such as the
// device agent. Credentials are supplied up front.
func Direct(opts ...DirectOption) Strategy {
	d := &directStrategy{header: http.Header{}}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *directStrategy) PrepareHeaders(*http.Request) http.Header {
	return d.header.Clone()
}

func (d *directStrategy) HTTPClient(base *http.Client) *http.Client {
	if d.timeout <= 0 {
		return base
	}
	c := *base
	c.Timeout = d.timeout
	return &c
}
