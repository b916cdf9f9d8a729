package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const docxBodyPart = "word/document.xml"

// skipped subtrees: drawings, legacy pictures, embedded objects, deleted
// text and field instructions.
var docxSkipped = map[string]bool{
	"drawing":   true,
	"pict":      true,
	"object":    true,
	"delText":   true,
	"instrText": true,
}

func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx container: %w", err)
	}

	var body *zip.File
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == docxBodyPart {
			body = f
			break
		}
	}
	if body == nil {
		return "", errors.New("document.xml not found")
	}

	rc, err := body.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", docxBodyPart, err)
	}
	defer rc.Close()

	return docxText(rc)
}

// docxText walks WordprocessingML in document order. Paragraphs, including
// those inside table cells, are joined with "\n".
func docxText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var (
		paragraphs []string
		current    strings.Builder
		inPara     int
		inRun      int
		inText     int
		skip       int
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse %s: %w", docxBodyPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			if skip > 0 || docxSkipped[name] {
				skip++
				continue
			}
			switch name {
			case "p":
				if inPara == 0 {
					current.Reset()
				}
				inPara++
			case "r":
				inRun++
			case "t":
				inText++
			case "tab":
				if inRun > 0 {
					current.WriteByte('\t')
				}
			case "br", "cr":
				if inRun > 0 {
					current.WriteByte('\n')
				}
			}
		case xml.EndElement:
			if skip > 0 {
				skip--
				continue
			}
			switch t.Name.Local {
			case "p":
				inPara--
				if inPara == 0 {
					paragraphs = append(paragraphs, current.String())
				}
			case "r":
				inRun--
			case "t":
				inText--
			}
		case xml.CharData:
			if skip == 0 && inText > 0 {
				current.Write(t)
			}
		}
	}

	return strings.Join(paragraphs, "\n"), nil
}
