package restyutil

import (
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/go-resty/resty/v2"
)

var redacted = []string{"Authorization", "Cookie", "Set-Cookie"}

func writeHeaders(out *strings.Builder, headers http.Header) {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		for _, v := range headers[name] {
			if slices.Contains(redacted, http.CanonicalHeaderKey(name)) {
				v = "<redacted>"
			}
			fmt.Fprintf(out, "%s: %s\n", name, v)
		}
	}
}

// summarized reports whether a body is written as a size instead of its
// contents, uploaded documents and rendered cards are binary.
func summarized(contentType string) bool {
	contentType = strings.ToLower(contentType)
	return strings.HasPrefix(contentType, "multipart/") ||
		strings.HasPrefix(contentType, "image/") ||
		strings.HasPrefix(contentType, "application/pdf")
}

func requestBody(req *http.Request) string {
	if req == nil || req.GetBody == nil {
		return ""
	}
	if contentType := req.Header.Get("content-type"); summarized(contentType) {
		return fmt.Sprintf("<%s, %d bytes>", contentType, req.ContentLength)
	}
	body, err := req.GetBody()
	if err != nil {
		return fmt.Sprintf("<failed to get request body: %s>", err.Error())
	}
	contents, err := io.ReadAll(body)
	if err != nil {
		return fmt.Sprintf("<failed to read request body: %s>", err.Error())
	}
	return string(contents)
}

// writeRequest renders the request line, headers and body the way .http
// files do.
func writeRequest(out *strings.Builder, req *resty.Request) {
	fmt.Fprintf(out, "%s %s\n", req.Method, req.URL)
	headers := req.Header
	if req.RawRequest != nil {
		headers = req.RawRequest.Header
	}
	writeHeaders(out, headers)
	if body := requestBody(req.RawRequest); body != "" {
		out.WriteString("\n")
		out.WriteString(body)
		out.WriteString("\n")
	}
}

func formatHttpMessage(res *resty.Response) string {
	var out strings.Builder
	writeRequest(&out, res.Request)

	fmt.Fprintf(&out, "\n### %s\n", res.Status())
	writeHeaders(&out, res.Header())
	body := res.String()
	if contentType := res.Header().Get("content-type"); summarized(contentType) {
		body = fmt.Sprintf("<%s, %d bytes>", contentType, res.Size())
	}
	if body != "" {
		out.WriteString("\n")
		out.WriteString(body)
		out.WriteString("\n")
	}
	return out.String()
}

func formatHttpRequest(req *resty.Request, err error) string {
	var out strings.Builder
	writeRequest(&out, req)
	fmt.Fprintf(&out, "\n### error\n%s\n", err.Error())
	return out.String()
}
