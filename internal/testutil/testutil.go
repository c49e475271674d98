// Package testutil provides test utilities and helpers.
package testutil

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// Header is the default keyword export header.
const Header = "Keyword,Avg. monthly searches,Competition (indexed value),Three month change,YoY change\n"

// ExampleCSV is a three-row export with one trending, one seasonal and one stable keyword.
const ExampleCSV = Header +
	"alpha,100,0,∞,10\n" +
	"beta,50,5,-5,0\n" +
	"gamma,10,10,0,0\n"

// CSV builds an export from data rows using the default header.
func CSV(rows ...string) string {
	return Header + strings.Join(rows, "\n") + "\n"
}

// UploadForm describes a multipart upload request.
type UploadForm struct {
	Project  string
	Filename string
	Body     string
	// OmitFile leaves the file part out of the form.
	OmitFile bool
}

// NewUploadRequest builds a multipart POST request to target.
func NewUploadRequest(t *testing.T, target string, form UploadForm) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if form.Project != "" {
		if err := w.WriteField("project_name", form.Project); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if !form.OmitFile {
		name := form.Filename
		if name == "" {
			name = "keywords.csv"
		}
		part, err := w.CreateFormFile("file", name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := io.WriteString(part, form.Body); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

// ReadBody reads and closes a response body.
func ReadBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}
