package apiclient

import (
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bahjat/living-memory/internal/platform/errs"
)

func TestEncodeQuery_OrderAndSkipping(t *testing.T) {
	q := struct {
		A int     `query:"a"`
		B []int   `query:"b"`
		C *string `query:"c"`
	}{A: 1, B: []int{2, 3}}

	got, err := EncodeQuery(q)
	require.NoError(t, err)
	assert.Equal(t, "a=1&b=2&b=3", got)
}

func TestEncodeQuery_Tags(t *testing.T) {
	name := "ada lovelace"
	q := &struct {
		Name    *string `query:"name"`
		Page    int
		Hidden  string `query:"-"`
		Cursor  string `query:"cursor,omitempty"`
		private string
	}{Name: &name, Page: 2, Hidden: "x", private: "y"}

	got, err := EncodeQuery(q)
	require.NoError(t, err)
	assert.Equal(t, "name=ada+lovelace&page=2", got)
}

func TestEncodeQuery_Values(t *testing.T) {
	got, err := EncodeQuery(url.Values{"b": {"2"}, "a": {"1"}})
	require.NoError(t, err)
	assert.Equal(t, "a=1&b=2", got)
}

func TestEncodeQuery_NilAndUnsupported(t *testing.T) {
	got, err := EncodeQuery(nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	var p *struct{ A int }
	got, err = EncodeQuery(p)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = EncodeQuery(42)
	assert.ErrorIs(t, err, errUnsupportedQuery)
}

func TestEncodeQuery_Validates(t *testing.T) {
	q := struct {
		Slug string `query:"slug" validate:"required"`
	}{}

	_, err := EncodeQuery(q)
	require.Error(t, err)

	wire := errs.Serialize(err)
	assert.Equal(t, errs.Validation, wire.ErrorType)
	assert.Contains(t, wire.Errors, "slug")
}

func TestJoinURL(t *testing.T) {
	tests := []struct {
		name, base, path, query, want string
	}{
		{"plain", "http://api.test", "/health", "", "http://api.test/health"},
		{"trailing slash on base", "http://api.test/", "/health", "", "http://api.test/health"},
		{"missing leading slash", "http://api.test", "health", "", "http://api.test/health"},
		{"query appended", "http://api.test", "/items", "a=1", "http://api.test/items?a=1"},
		{"existing query", "http://api.test", "/items?x=1", "y=2", "http://api.test/items?x=1&y=2"},
		{"path ends in question mark", "http://api.test/", "items?", "y=2", "http://api.test/items?y=2"},
		{"path ends in ampersand", "http://api.test", "/items?x=1&", "y=2", "http://api.test/items?x=1&y=2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, JoinURL(tt.base, tt.path, tt.query))
		})
	}
}

func TestCopyHeaders(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Add("Cookie", "lm_session=abc")
	r.Header.Add("X-Multi", "1")
	r.Header.Add("X-Multi", "2")

	h := CopyHeaders(r)
	assert.Equal(t, "lm_session=abc", h.Get("Cookie"))
	assert.Equal(t, []string{"1", "2"}, h.Values("X-Multi"))

	h.Set("Cookie", "changed")
	assert.Equal(t, "lm_session=abc", r.Header.Get("Cookie"))
}

func TestJSONBody(t *testing.T) {
	reader, contentType, err := JSON(map[string]string{"name": "Ada"}).encode()
	require.NoError(t, err)
	assert.Equal(t, "application/json", contentType)

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Ada"}`, string(data))
}

func TestMultipartBody(t *testing.T) {
	form, err := Multipart(func(w *multipart.Writer) error {
		return w.WriteField("caption", "beach")
	})
	require.NoError(t, err)

	reader, contentType, err := form.encode()
	require.NoError(t, err)

	mediaType, params, err := mime.ParseMediaType(contentType)
	require.NoError(t, err)
	assert.Equal(t, "multipart/form-data", mediaType)

	part, err := multipart.NewReader(reader, params["boundary"]).NextPart()
	require.NoError(t, err)
	value, err := io.ReadAll(part)
	require.NoError(t, err)
	assert.Equal(t, "caption", part.FormName())
	assert.Equal(t, "beach", string(value))
}
