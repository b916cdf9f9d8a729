package search

import "time"

type contextResponse struct {
	Text            string `json:"text"`
	Offset          int    `json:"offset"`
	Length          int    `json:"length"`
	HighlightStart  int    `json:"highlightStart"`
	HighlightLength int    `json:"highlightLength"`
}

type matchResponse struct {
	DocumentID    string          `json:"documentId"`
	OwnerID       string          `json:"ownerId,omitempty"`
	FileName      string          `json:"fileName,omitempty"`
	FileType      string          `json:"fileType,omitempty"`
	UploadedAt    *time.Time      `json:"uploadedAt,omitempty"`
	Start         int             `json:"start"`
	End           int             `json:"end"`
	Matched       string          `json:"matched"`
	Score         float64         `json:"score"`
	ContextBefore string          `json:"contextBefore"`
	ContextAfter  string          `json:"contextAfter"`
	Context       contextResponse `json:"context"`
}

type metaResponse struct {
	Query          string `json:"query"`
	Exact          bool   `json:"exact"`
	ContextBefore  int    `json:"contextBefore"`
	ContextAfter   int    `json:"contextAfter"`
	Limit          int    `json:"limit"`
	Offset         int    `json:"offset"`
	TotalDocuments int    `json:"totalDocuments"`
	TotalMatches   int    `json:"totalMatches"`
}

type searchResponse struct {
	Results []matchResponse `json:"results"`
	Meta    metaResponse    `json:"meta"`
}

func toResponse(res Result) searchResponse {
	out := searchResponse{
		Results: make([]matchResponse, 0, len(res.Matches)),
		Meta: metaResponse{
			Query:          res.Meta.Query,
			Exact:          res.Meta.Exact,
			ContextBefore:  res.Meta.ContextBefore,
			ContextAfter:   res.Meta.ContextAfter,
			Limit:          res.Meta.Limit,
			Offset:         res.Meta.Offset,
			TotalDocuments: res.Meta.TotalDocuments,
			TotalMatches:   res.Meta.TotalMatches,
		},
	}
	for _, m := range res.Matches {
		item := matchResponse{
			DocumentID:    m.DocumentID,
			OwnerID:       m.Document.OwnerID,
			FileName:      m.Document.FileName,
			FileType:      string(m.Document.FileType),
			Start:         m.Start,
			End:           m.End,
			Matched:       m.Matched,
			Score:         m.Score,
			ContextBefore: m.ContextBefore,
			ContextAfter:  m.ContextAfter,
			Context: contextResponse{
				Text:            m.Window.Text(),
				Offset:          m.Window.Offset,
				Length:          m.Window.Length,
				HighlightStart:  m.Window.HighlightStart,
				HighlightLength: m.Window.HighlightLength,
			},
		}
		if !m.Document.UploadedAt.IsZero() {
			uploaded := m.Document.UploadedAt
			item.UploadedAt = &uploaded
		}
		out.Results = append(out.Results, item)
	}
	return out
}
