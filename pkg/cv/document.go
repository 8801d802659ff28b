package cv

import "strings"

var mimeTypeToExt = map[string]string{
	"application/pdf":    "pdf",
	"application/x-pdf":  "pdf",
	"application/msword": "doc",

	"application/vnd.openxmlformats-officedocument":                           "docx",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": "docx",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.template": "dotx",
	"application/vnd.ms-word.document.macroEnabled.12":                        "docm",
	"application/vnd.ms-word.template.macroEnabled.12":                        "dotm",

	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
}

// FormatFilename picks the filename a CV document is uploaded or served as.
// Without a MIME type the given filename (or cv.pdf) is used. Otherwise the
// extension follows the MIME type: unknown image types use their subtype,
// anything else unknown is treated as a PDF. A filename that already has an
// extension is kept untouched.
func FormatFilename(filename, mimeType string) string {
	if mimeType == "" {
		if filename == "" {
			return "cv.pdf"
		}
		return filename
	}

	ext, ok := mimeTypeToExt[mimeType]
	if !ok {
		ext = "pdf"
		if subtype, found := strings.CutPrefix(mimeType, "image/"); found {
			ext, _, _ = strings.Cut(subtype, " ")
		}
	}

	if filename == "" {
		return "cv." + ext
	}
	if !strings.Contains(filename, ".") {
		return filename + "." + ext
	}
	return filename
}
