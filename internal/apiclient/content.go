package apiclient

import "strings"

// ContentKind is the strategy used to drain a response body.
type ContentKind int

const (
	// ContentUnrecognized is a media type the client does not know how to read.
	ContentUnrecognized ContentKind = iota
	// ContentJSON is application/json or any +json suffix.
	ContentJSON
	// ContentText is any text/* type.
	ContentText
	// ContentBinary is a media type read as raw bytes.
	ContentBinary
)

func (k ContentKind) String() string {
	switch k {
	case ContentJSON:
		return "json"
	case ContentText:
		return "text"
	case ContentBinary:
		return "binary"
	case ContentUnrecognized:
		return "unrecognized"
	default:
		panic("apiclient: unhandled content kind")
	}
}

var binaryTypes = map[string]bool{
	"application/octet-stream": true,
	"application/pdf":          true,
	"application/zip":          true,
}

// Negotiate classifies a declared Content-Type header value. Only the header
// is inspected, so it is safe to call before the body is read.
func Negotiate(contentType string) ContentKind {
	mediaType, _, _ := strings.Cut(contentType, ";")
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))

	switch {
	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		return ContentJSON
	case strings.HasPrefix(mediaType, "text/"):
		return ContentText
	case strings.HasPrefix(mediaType, "image/"),
		strings.HasPrefix(mediaType, "video/"),
		strings.HasPrefix(mediaType, "audio/"),
		binaryTypes[mediaType]:
		return ContentBinary
	default:
		return ContentUnrecognized
	}
}
