package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/tealeg/xlsx/v2"
)

// XLSXRenderer flattens a document into a workbook written beside the PDF
// artifact: one overview sheet carrying the headings and detail blocks, plus
// one sheet per table. Images carry no data and are skipped.
type XLSXRenderer struct{}

// Extension returns the artifact filename suffix.
func (XLSXRenderer) Extension() string { return ".xlsx" }

// Render serializes the document to XLSX bytes.
func (XLSXRenderer) Render(doc *Document) ([]byte, error) {
	file := xlsx.NewFile()
	overview, err := file.AddSheet("Overview")
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}

	overview.AddRow().AddCell().SetString(doc.Title)
	generated := overview.AddRow()
	generated.AddCell().SetString("Data Generated")
	generated.AddCell().SetString(doc.GeneratedAt.Format("02/01/2006"))
	overview.AddRow()

	used := map[string]bool{}
	tableIndex := 0
	for _, section := range doc.Sections {
		switch s := section.(type) {
		case Heading:
			overview.AddRow().AddCell().SetString(s.Text)
		case DetailList:
			for _, d := range s.Rows {
				row := overview.AddRow()
				row.AddCell().SetString(d.Label)
				row.AddCell().SetString(d.Value)
			}
		case Table:
			tableIndex++
			name := sheetName(s.Title, tableIndex, used)
			used[name] = true
			sheet, err := file.AddSheet(name)
			if err != nil {
				return nil, fmt.Errorf("render xlsx: %w", err)
			}
			header := sheet.AddRow()
			for _, h := range s.Header {
				header.AddCell().SetString(h)
			}
			for _, cells := range s.Rows {
				row := sheet.AddRow()
				for _, c := range cells {
					row.AddCell().SetString(c)
				}
			}
		}
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

var sheetNameSanitizer = strings.NewReplacer(
	"/", "-", "\\", "-", ":", "-", "?", "", "*", "", "[", "(", "]", ")",
)

// sheetName derives a workbook-legal sheet name: sanitized and capped at the
// 31-character limit, with an index prefix when the title is missing or
// already taken.
func sheetName(title string, index int, used map[string]bool) string {
	name := strings.TrimSpace(sheetNameSanitizer.Replace(title))
	if name == "" {
		name = fmt.Sprintf("Table %d", index)
	}
	name = cap31(name)
	if used[name] {
		name = cap31(fmt.Sprintf("%d. %s", index, name))
	}
	return name
}

func cap31(name string) string {
	if len(name) > 31 {
		return name[:31]
	}
	return name
}
