package documents

import "time"

// FileType is the canonical document format tag.
type FileType string

const (
	TypePDF  FileType = "pdf"
	TypeDOCX FileType = "docx"
)

// MimeType returns the canonical MIME type for the format.
func (t FileType) MimeType() string {
	switch t {
	case TypePDF:
		return "application/pdf"
	case TypeDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/octet-stream"
	}
}

// Document represents an ingested file owned by an owner.
type Document struct {
	ID         string
	OwnerID    string
	FileName   string
	FileType   FileType
	MimeType   string
	SizeBytes  int64
	FileHash   string
	StorageKey string
	UploadedAt time.Time
	UpdatedAt  time.Time
}

// Content is the extracted text of a document. Length counts code points.
type Content struct {
	DocumentID  string
	Text        string
	Length      int
	ExtractedAt time.Time
}

// UploadInput is one upload or re-upload request. DocumentID is empty for
// new uploads.
type UploadInput struct {
	DocumentID   string
	OwnerID      string
	FileName     string
	DeclaredType string
	Data         []byte
}

// IngestResult describes a completed upload or re-upload. Length counts
// code points of the extracted text.
type IngestResult struct {
	Document Document
	Length   int
	Created  bool
}
