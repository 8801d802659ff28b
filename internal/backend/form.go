package backend

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// Form is a multipart/form-data body. It is encoded fresh for every attempt
// so the same Form can be retried and sent to the alternative server.
type Form struct {
	parts []formPart
}

type formPart struct {
	name        string
	filename    string
	contentType string
	data        []byte
}

// NewForm returns an empty Form.
func NewForm() *Form {
	return &Form{}
}

// Set adds a plain text field.
func (f *Form) Set(name, value string) {
	f.parts = append(f.parts, formPart{name: name, data: []byte(value)})
}

// SetFile adds a file field. An empty contentType falls back to
// application/octet-stream.
func (f *Form) SetFile(name, filename, contentType string, data []byte) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	f.parts = append(f.parts, formPart{name: name, filename: filename, contentType: contentType, data: data})
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func (f *Form) encode() (string, []byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range f.parts {
		if p.filename == "" {
			if err := mw.WriteField(p.name, string(p.data)); err != nil {
				return "", nil, fmt.Errorf("write form field %s: %w", p.name, err)
			}
			continue
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(p.name), quoteEscaper.Replace(p.filename)))
		h.Set("Content-Type", p.contentType)
		pw, err := mw.CreatePart(h)
		if err != nil {
			return "", nil, fmt.Errorf("create form file %s: %w", p.name, err)
		}
		if _, err := pw.Write(p.data); err != nil {
			return "", nil, fmt.Errorf("write form file %s: %w", p.name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", nil, fmt.Errorf("close form: %w", err)
	}
	return mw.FormDataContentType(), buf.Bytes(), nil
}
