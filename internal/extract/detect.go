package extract

import (
	"archive/zip"
	"bytes"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Canonical type tags.
const (
	TypePDF  = "pdf"
	TypeDOCX = "docx"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// CanonicalType maps a declared type to a canonical tag. It accepts the
// short tag, a file extension or a MIME type. Unknown values yield "".
func CanonicalType(declared string) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(declared, ";")[0]))
	clean = strings.TrimPrefix(clean, ".")
	switch clean {
	case TypePDF, mimePDF, "application/x-pdf":
		return TypePDF
	case TypeDOCX, mimeDOCX:
		return TypeDOCX
	default:
		return ""
	}
}

// TypeFromFileName returns the canonical tag for the file's extension.
func TypeFromFileName(name string) string {
	return CanonicalType(filepath.Ext(name))
}

// IsGeneric reports whether a declared type carries no format information.
func IsGeneric(declared string) bool {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(declared, ";")[0]))
	switch clean {
	case "", "application/octet-stream", "binary/octet-stream", "application/zip", "application/x-zip-compressed":
		return true
	default:
		return false
	}
}

// Sniff detects the canonical type from content. Zip archives are inspected
// for a WordprocessingML body part.
func Sniff(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	mt := mimetype.Detect(data)
	switch {
	case mt.Is(mimePDF):
		return TypePDF
	case mt.Is(mimeDOCX):
		return TypeDOCX
	case mt.Is("application/zip"):
		if hasDocxBody(data) {
			return TypeDOCX
		}
	}
	return ""
}

func hasDocxBody(data []byte) bool {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == docxBodyPart {
			return true
		}
	}
	return false
}
