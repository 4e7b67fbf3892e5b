package httpproto

import (
	"fmt"
	"sort"
	"strings"

	"github.com/relentless-eng/relentless/internal/record"
)

// RequestCodec and ResponseCodec implement record.Codec for the HTTP
// protocol: raw wire-style dumps plus a body/extension pair for the typed
// artifact file.
type RequestCodec struct{}
type ResponseCodec struct{}

var (
	_ record.Codec[BuiltRequest] = RequestCodec{}
	_ record.Codec[Reply]        = ResponseCodec{}
)

func (RequestCodec) Raw(r BuiltRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s HTTP/1.1\n", r.Method, r.URL)
	writeHeaders(&b, r.Header)
	b.WriteString("\n")
	b.Write(r.Body)
	return b.String()
}

func (RequestCodec) Body(r BuiltRequest) ([]byte, string) {
	return r.Body, extensionFor(r.Header.Get("Content-Type"))
}

func (ResponseCodec) Raw(r Reply) string {
	var b strings.Builder
	fmt.Fprintf(&b, "HTTP/1.1 %d\n", r.StatusCode)
	writeHeaders(&b, r.Header)
	b.WriteString("\n")
	b.Write(r.Body)
	return b.String()
}

func (ResponseCodec) Body(r Reply) ([]byte, string) {
	return r.Body, extensionFor(r.Header.Get("Content-Type"))
}

func writeHeaders(b *strings.Builder, header map[string][]string) {
	names := make([]string, 0, len(header))
	for k := range header {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		for _, v := range header[k] {
			fmt.Fprintf(b, "%s: %q\n", k, v)
		}
	}
}

func extensionFor(contentType string) string {
	if strings.Contains(contentType, "json") {
		return "json"
	}
	return "txt"
}
