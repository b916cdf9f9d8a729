package documents

import "time"

// DocumentResponse is the outward-facing representation of a document.
type DocumentResponse struct {
	DocumentID    string    `json:"documentId"`
	OwnerID       string    `json:"ownerId"`
	FileName      string    `json:"fileName"`
	FileType      string    `json:"fileType"`
	MimeType      string    `json:"mimeType"`
	SizeBytes     int64     `json:"sizeBytes"`
	FileHash      string    `json:"fileHash"`
	ContentLength *int      `json:"contentLength,omitempty"`
	UploadedAt    time.Time `json:"uploadedAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type listResponse struct {
	Documents []DocumentResponse `json:"documents"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
}

func toResponse(doc Document) DocumentResponse {
	return DocumentResponse{
		DocumentID: doc.ID,
		OwnerID:    doc.OwnerID,
		FileName:   doc.FileName,
		FileType:   string(doc.FileType),
		MimeType:   doc.MimeType,
		SizeBytes:  doc.SizeBytes,
		FileHash:   doc.FileHash,
		UploadedAt: doc.UploadedAt,
		UpdatedAt:  doc.UpdatedAt,
	}
}

func toDetailResponse(doc Document, length int) DocumentResponse {
	resp := toResponse(doc)
	resp.ContentLength = &length
	return resp
}
