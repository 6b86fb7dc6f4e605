package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Bahjat/living-memory/internal/platform/errs"
	"github.com/Bahjat/living-memory/internal/platform/requestid"
	"github.com/Bahjat/living-memory/internal/platform/try"
)

const maxDiagnosticBody = 512

var (
	errBodyTooLarge      = errors.New("response body too large")
	errUnsupportedTarget = errors.New("unsupported result type")
)

// Result is the outcome of one call. Exactly one of Data and Error is
// meaningful, selected by Success.
type Result[T any] struct {
	Success bool                `json:"success"`
	Data    T                   `json:"data"`
	Error   *errs.ErrorResponse `json:"error"`

	method string
}

// Err rebuilds the typed error of a failed call, or returns nil.
func (r Result[T]) Err() error {
	if r.Success {
		return nil
	}
	if r.Error == nil {
		return errs.NewServerError("")
	}
	return errs.FromWire(*r.Error, r.method)
}

// MarshalJSON writes data only on success and error only on failure, so a
// failed Result never carries a zero value next to its error.
func (r Result[T]) MarshalJSON() ([]byte, error) {
	if r.Success {
		return json.Marshal(struct {
			Success bool `json:"success"`
			Data    T    `json:"data"`
		}{true, r.Data})
	}
	wire := errs.NewServerError("").Wire()
	if r.Error != nil {
		wire = *r.Error
	}
	return json.Marshal(struct {
		Success bool               `json:"success"`
		Error   errs.ErrorResponse `json:"error"`
	}{false, wire})
}

// UnmarshalJSON reads the shape written by MarshalJSON.
func (r *Result[T]) UnmarshalJSON(data []byte) error {
	var raw struct {
		Success bool                `json:"success"`
		Data    json.RawMessage     `json:"data"`
		Error   *errs.ErrorResponse `json:"error"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var out Result[T]
	out.Success = raw.Success
	if raw.Success {
		if len(raw.Data) > 0 {
			if err := json.Unmarshal(raw.Data, &out.Data); err != nil {
				return fmt.Errorf("result data: %w", err)
			}
		}
	} else {
		out.Error = raw.Error
	}
	*r = out
	return nil
}

// Unwrap returns the data and the typed error of the call.
func (r Result[T]) Unwrap() (T, error) {
	return r.Data, r.Err()
}

func succeed[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

// ErrorResult builds a failed Result from err, serialized through the error
// taxonomy. It is used for failures detected before a request is sent.
func ErrorResult[T any](err error, method string) Result[T] {
	return fail[T](errs.Serialize(err), method)
}

func fail[T any](resp errs.ErrorResponse, method string) Result[T] {
	return Result[T]{Error: &resp, method: method}
}

// GetRequest describes a GET call. Inbound is required by the SSR strategy.
type GetRequest struct {
	Path    string
	Query   any
	Inbound *http.Request
}

// MutateRequest describes a POST, PUT, PATCH or DELETE call.
type MutateRequest struct {
	Path    string
	Method  string
	Body    Body
	Query   any
	Inbound *http.Request
}

// Get performs a GET request and decodes the response into T.
func Get[T any](ctx context.Context, c *Client, req GetRequest) Result[T] {
	return do[T](ctx, c, http.MethodGet, req.Path, req.Query, nil, req.Inbound)
}

// Mutate performs a state-changing request and decodes the response into T.
func Mutate[T any](ctx context.Context, c *Client, req MutateRequest) Result[T] {
	switch req.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return fail[T](errs.NewMethodNotAllowed(req.Method).Wire(), req.Method)
	}
	return do[T](ctx, c, req.Method, req.Path, req.Query, req.Body, req.Inbound)
}

func do[T any](ctx context.Context, c *Client, method, path string, query any, body Body, inbound *http.Request) Result[T] {
	qs, err := EncodeQuery(query)
	if err != nil {
		return fail[T](errs.Serialize(err), method)
	}
	endpoint := JoinURL(c.baseURL, path, qs)

	var (
		reader      io.Reader
		contentType string
	)
	if body != nil {
		if reader, contentType, err = body.encode(); err != nil {
			return fail[T](errs.Serialize(err), method)
		}
	}

	header := c.strategy.PrepareHeaders(inbound)
	if header == nil {
		header = http.Header{}
	}
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	// The transport only decompresses responses it negotiated itself.
	header.Del("Accept-Encoding")
	if header.Get("User-Agent") == "" {
		header.Set("User-Agent", userAgent)
	}
	requestid.Propagate(ctx, header)

	sent := try.Handle(func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return nil, err
		}
		req.Header = header
		return c.http.Do(req)
	})
	if !sent.Success {
		msg := fmt.Sprintf("Network error while fetching %s: %v", endpoint, sent.Err)
		return failed(ctx, c, endpoint, fail[T](errs.NewServerError(msg).Wire(), method))
	}
	resp := sent.Data
	defer resp.Body.Close()

	declared := resp.Header.Get("Content-Type")
	kind := Negotiate(declared)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		read := try.Handle(func() ([]byte, error) { return c.readBody(resp) })
		if read.Success && kind == ContentJSON {
			if wire, err := errs.ParseErrorResponse(read.Data); err == nil {
				return failed(ctx, c, endpoint, fail[T](wire, method))
			}
		}
		text := "Unknown"
		if read.Success {
			text = string(read.Data)
		}
		e := errs.New(errs.Unknown, text)
		e.Status = resp.StatusCode
		return failed(ctx, c, endpoint, fail[T](e.Wire(), method))
	}

	if resp.StatusCode == http.StatusNoContent || resp.Header.Get("Content-Length") == "0" || resp.ContentLength == 0 {
		var zero T
		return succeed(zero)
	}

	var decoded try.Result[T]
	switch kind {
	case ContentJSON:
		decoded = try.Handle(func() (T, error) { return decodeJSON[T](c, resp) })
	case ContentText:
		decoded = try.Handle(func() (T, error) { return decodeRaw[T](c, resp, true) })
	case ContentBinary:
		decoded = try.Handle(func() (T, error) { return decodeRaw[T](c, resp, false) })
	case ContentUnrecognized:
		if declared == "" {
			declared = "(not set)"
		}
		msg := "Content type not recognized: " + declared
		return failed(ctx, c, endpoint, fail[T](errs.NewServerError(msg).Wire(), method))
	default:
		panic(fmt.Sprintf("apiclient: unhandled content kind %d", kind))
	}

	if !decoded.Success {
		verb := "read " + kind.String()
		if kind == ContentJSON {
			verb = "parse JSON"
		}
		msg := fmt.Sprintf("Failed to %s response from %s: %v", verb, endpoint, decoded.Err)
		return failed(ctx, c, endpoint, fail[T](errs.NewServerError(msg).Wire(), method))
	}
	return succeed(decoded.Data)
}

func failed[T any](ctx context.Context, c *Client, endpoint string, r Result[T]) Result[T] {
	c.logger.ErrorContext(ctx, "api call failed",
		"url", endpoint,
		"method", r.method,
		"status", r.Error.Status,
		"error_type", r.Error.ErrorType,
		"message", r.Error.Message,
		"request_id", requestid.FromContext(ctx),
	)
	return r
}

// readBody drains resp up to the configured limit.
func (c *Client) readBody(resp *http.Response) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > c.maxBody {
		return nil, fmt.Errorf("%w: exceeds %d bytes", errBodyTooLarge, c.maxBody)
	}
	return data, nil
}

func decodeJSON[T any](c *Client, resp *http.Response) (T, error) {
	var out T
	data, err := c.readBody(resp)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("%w (body: %q)", err, snippet(data))
	}
	return out, nil
}

// decodeRaw stores a text or binary body into T. Text fits string, []byte
// or any; binary fits []byte or any.
func decodeRaw[T any](c *Client, resp *http.Response, text bool) (T, error) {
	var out T
	data, err := c.readBody(resp)
	if err != nil {
		return out, err
	}
	switch p := any(&out).(type) {
	case *[]byte:
		*p = data
	case *string:
		if !text {
			return out, fmt.Errorf("%w: binary body into string", errUnsupportedTarget)
		}
		*p = string(data)
	case *any:
		if text {
			*p = string(data)
		} else {
			*p = data
		}
	default:
		return out, fmt.Errorf("%w: %T", errUnsupportedTarget, p)
	}
	return out, nil
}

func snippet(data []byte) string {
	if len(data) > maxDiagnosticBody {
		return string(data[:maxDiagnosticBody]) + "..."
	}
	return string(data)
}
