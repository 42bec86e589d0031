package render

import "time"

// Document is the finished, renderer-independent report content: a title, a
// generation timestamp and the ordered section plan the assembler decided
// on. Renderers walk it without making content decisions of their own.
type Document struct {
	Title       string
	GeneratedAt time.Time
	Sections    []Section
}

// Section is one content block of a report document.
type Section interface {
	isSection()
}

// Heading is a numbered section heading, e.g. "1. Farm Details".
type Heading struct {
	Text string
}

// Detail is one labeled value of a detail block.
type Detail struct {
	Label string
	Value string
}

// DetailList is a block of labeled values rendered one per line.
type DetailList struct {
	Rows []Detail
}

// Table is a grid with a fixed header row. Title, when set, prints above
// the grid and names the sheet in spreadsheet output.
type Table struct {
	Title  string
	Header []string
	Rows   [][]string
}

// Image is an inline PNG, centered, Width in page units. A zero Width falls
// back to the renderer default.
type Image struct {
	PNG     []byte
	Width   float64
	Caption string
}

func (Heading) isSection()    {}
func (DetailList) isSection() {}
func (Table) isSection()      {}
func (Image) isSection()      {}

// AddSection appends a section and returns the document for chaining.
func (d *Document) AddSection(s Section) *Document {
	d.Sections = append(d.Sections, s)
	return d
}
