package cv

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatFilename(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		filename string
		mimeType string
		want     string
	}{
		{"", "", "cv.pdf"},
		{"resume.docx", "", "resume.docx"},
		{"resume", "", "resume"},
		{"", "application/pdf", "cv.pdf"},
		{"", "application/msword", "cv.doc"},
		{"", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", "cv.docx"},
		{"", "image/jpeg", "cv.jpg"},
		{"", "image/webp", "cv.webp"},
		{"", "image/svg+xml charset=utf-8", "cv.svg+xml"},
		{"", "text/plain", "cv.pdf"},
		{"resume", "application/x-pdf", "resume.pdf"},
		{"resume.final.doc", "application/pdf", "resume.final.doc"},
	}

	for _, tc := range testCases {
		t.Run(tc.filename+"|"+tc.mimeType, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, FormatFilename(tc.filename, tc.mimeType))
		})
	}
}
