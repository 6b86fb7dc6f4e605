package apiclient

import (
	"bytes"
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/Bahjat/living-memory/internal/platform/validate"
)

var errUnsupportedQuery = errors.New("apiclient: query must be a struct or url.Values")

// EncodeQuery validates a query object and serializes it. Struct fields are
// emitted in declaration order under their `query` tag (lower-cased field
// name when untagged, "-" to skip, ",omitempty" to skip zero values). Nil
// pointers, interfaces and slices are skipped; slices expand into repeated
// pairs. url.Values are encoded as-is.
func EncodeQuery(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	if q, ok := v.(url.Values); ok {
		return q.Encode(), nil
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return "", fmt.Errorf("%w: got %T", errUnsupportedQuery, v)
	}
	if err := validate.Struct(v); err != nil {
		return "", err
	}

	var pairs []string
	rt := rv.Type()
	for i := range rt.NumField() {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		name, omitEmpty := queryName(f)
		if name == "" {
			continue
		}
		fv := rv.Field(i)
		if omitEmpty && fv.IsZero() {
			continue
		}
		pairs = appendPairs(pairs, name, fv)
	}
	return strings.Join(pairs, "&"), nil
}

func queryName(f reflect.StructField) (string, bool) {
	tag, ok := f.Tag.Lookup("query")
	if !ok {
		return strings.ToLower(f.Name), false
	}
	name, opts, _ := strings.Cut(tag, ",")
	if name == "-" {
		return "", false
	}
	if name == "" {
		name = strings.ToLower(f.Name)
	}
	return name, opts == "omitempty"
}

func appendPairs(pairs []string, key string, v reflect.Value) []string {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return pairs
		}
		return appendPairs(pairs, key, v.Elem())
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return pairs
		}
		for i := range v.Len() {
			pairs = appendPairs(pairs, key, v.Index(i))
		}
		return pairs
	default:
		return append(pairs, url.QueryEscape(key)+"="+url.QueryEscape(formatValue(v)))
	}
}

func formatValue(v reflect.Value) string {
	if v.CanInterface() {
		if tm, ok := v.Interface().(encoding.TextMarshaler); ok {
			if b, err := tm.MarshalText(); err == nil {
				return string(b)
			}
		}
		return fmt.Sprint(v.Interface())
	}
	return v.String()
}

// JoinURL combines a base address, a relative path and an encoded query.
// One trailing slash is stripped from base, a leading slash is added to path,
// and the query is joined with "&" when path already carries one.
func JoinURL(base, path, query string) string {
	rel := path
	if query != "" {
		var sep string
		switch {
		case strings.HasSuffix(path, "?"), strings.HasSuffix(path, "&"):
		case strings.Contains(path, "?"):
			sep = "&"
		default:
			sep = "?"
		}
		rel = path + sep + query
	}
	if !strings.HasPrefix(rel, "/") {
		rel = "/" + rel
	}
	return strings.TrimSuffix(base, "/") + rel
}

// CopyHeaders returns a new header set holding every header of the inbound
// request.
func CopyHeaders(r *http.Request) http.Header {
	h := make(http.Header, len(r.Header))
	for k, vs := range r.Header {
		h[k] = append([]string(nil), vs...)
	}
	return h
}

// Body is a request payload. The returned content type is empty when the
// payload does not require one.
type Body interface {
	encode() (io.Reader, string, error)
}

type jsonBody struct {
	v any
}

// JSON validates v against its struct tags and sends it as application/json.
func JSON(v any) Body {
	return jsonBody{v: v}
}

func (b jsonBody) encode() (io.Reader, string, error) {
	if err := validate.Struct(b.v); err != nil {
		return nil, "", err
	}
	data, err := json.Marshal(b.v)
	if err != nil {
		return nil, "", fmt.Errorf("apiclient: encode body: %w", err)
	}
	return bytes.NewReader(data), "application/json", nil
}

// FormData is a pre-built multipart body sent unchanged, with the boundary
// content type produced by its writer.
type FormData struct {
	data        []byte
	contentType string
}

// Multipart builds a multipart body with build. The writer is closed by
// Multipart.
func Multipart(build func(w *multipart.Writer) error) (*FormData, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := build(w); err != nil {
		return nil, fmt.Errorf("apiclient: build form: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("apiclient: close form: %w", err)
	}
	return &FormData{data: buf.Bytes(), contentType: w.FormDataContentType()}, nil
}

func (f *FormData) encode() (io.Reader, string, error) {
	return bytes.NewReader(f.data), f.contentType, nil
}
