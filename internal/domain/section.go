package domain

import (
	"encoding/json"
	"errors"
	"slices"

	"encrypted-notes/internal/codec"
	"encrypted-notes/internal/ids"

	"github.com/fxamacker/cbor/v2"
)

type SectionKind uint16

const (
	SectionNoteLink SectionKind = iota + 1
	SectionPageLink
	SectionHeading1
	SectionHeading2
	SectionHeading3
	SectionParagraph
	SectionBullet
	SectionNumbered
	SectionCheckbox
	SectionQuote
	SectionCode
	SectionBookmark
	SectionEmbed
	SectionSecret
	SectionDivider
	SectionFile
	SectionTable
)

var sectionKindNames = map[SectionKind]string{
	SectionNoteLink:  "note_link",
	SectionPageLink:  "page_link",
	SectionHeading1:  "heading1",
	SectionHeading2:  "heading2",
	SectionHeading3:  "heading3",
	SectionParagraph: "paragraph",
	SectionBullet:    "bullet",
	SectionNumbered:  "numbered",
	SectionCheckbox:  "checkbox",
	SectionQuote:     "quote",
	SectionCode:      "code",
	SectionBookmark:  "bookmark",
	SectionEmbed:     "embed",
	SectionSecret:    "secret",
	SectionDivider:   "divider",
	SectionFile:      "file",
	SectionTable:     "table",
}

func (k SectionKind) String() string {
	if name, ok := sectionKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// SectionContent is the closed set of things a note section can hold.
type SectionContent interface {
	SectionKind() SectionKind
}

type (
	NoteLink struct {
		Note ids.NoteID `cbor:"0,keyasint" json:"note"`
	}
	PageLink struct {
		Page ids.PageID `cbor:"0,keyasint" json:"page"`
	}
	Heading1  string
	Heading2  string
	Heading3  string
	Paragraph string
	// Bullet and Numbered are list items; nesting is expressed with Section.Indent.
	Bullet   string
	Numbered string
	Checkbox struct {
		Checked bool   `cbor:"0,keyasint" json:"checked"`
		Text    string `cbor:"1,keyasint" json:"text"`
	}
	Quote    string
	Code     string
	Bookmark struct {
		URL string `cbor:"0,keyasint" json:"url"`
	}
	Embed struct {
		URL string `cbor:"0,keyasint" json:"url"`
	}
	Secret  string
	Divider struct{}
	FileRef struct {
		File  ids.FileID `cbor:"0,keyasint" json:"file"`
		Embed bool       `cbor:"1,keyasint" json:"embed"`
	}
	Table struct {
		Rows  uint32      `cbor:"0,keyasint" json:"rows"`
		Cols  uint8       `cbor:"1,keyasint" json:"cols"`
		Cells []TableCell `cbor:"2,keyasint" json:"cells"`
	}
)

type TableCell struct {
	Row   uint32 `cbor:"0,keyasint" json:"row"`
	Col   uint8  `cbor:"1,keyasint" json:"col"`
	Value string `cbor:"2,keyasint" json:"value"`
}

func (NoteLink) SectionKind() SectionKind  { return SectionNoteLink }
func (PageLink) SectionKind() SectionKind  { return SectionPageLink }
func (Heading1) SectionKind() SectionKind  { return SectionHeading1 }
func (Heading2) SectionKind() SectionKind  { return SectionHeading2 }
func (Heading3) SectionKind() SectionKind  { return SectionHeading3 }
func (Paragraph) SectionKind() SectionKind { return SectionParagraph }
func (Bullet) SectionKind() SectionKind    { return SectionBullet }
func (Numbered) SectionKind() SectionKind  { return SectionNumbered }
func (Checkbox) SectionKind() SectionKind  { return SectionCheckbox }
func (Quote) SectionKind() SectionKind     { return SectionQuote }
func (Code) SectionKind() SectionKind      { return SectionCode }
func (Bookmark) SectionKind() SectionKind  { return SectionBookmark }
func (Embed) SectionKind() SectionKind     { return SectionEmbed }
func (Secret) SectionKind() SectionKind    { return SectionSecret }
func (Divider) SectionKind() SectionKind   { return SectionDivider }
func (FileRef) SectionKind() SectionKind   { return SectionFile }
func (Table) SectionKind() SectionKind     { return SectionTable }

// Cell returns the value at row/col, if one was set.
func (t Table) Cell(row uint32, col uint8) (string, bool) {
	i := slices.IndexFunc(t.Cells, func(c TableCell) bool { return c.Row == row && c.Col == col })
	if i < 0 {
		return "", false
	}
	return t.Cells[i].Value, true
}

// WithCell returns a copy of t with row/col set. Cells stay sorted by
// (row, col).
func (t Table) WithCell(row uint32, col uint8, value string) Table {
	cells := slices.Clone(t.Cells)
	i := slices.IndexFunc(cells, func(c TableCell) bool { return c.Row == row && c.Col == col })
	if i >= 0 {
		cells[i].Value = value
	} else {
		cells = append(cells, TableCell{Row: row, Col: col, Value: value})
	}
	slices.SortStableFunc(cells, compareCells)
	t.Cells = cells
	return t
}

func compareCells(a, b TableCell) int {
	if a.Row != b.Row {
		if a.Row < b.Row {
			return -1
		}
		return 1
	}
	return int(a.Col) - int(b.Col)
}

var errDuplicateCell = errors.New("domain: table has two values for one cell")

// sortedCells returns a sorted copy of cells. A table maps each (row, col)
// to one value, so repeated coordinates are an error.
func sortedCells(cells []TableCell) ([]TableCell, error) {
	if len(cells) == 0 {
		return nil, nil
	}
	out := slices.Clone(cells)
	slices.SortFunc(out, compareCells)
	for i := 1; i < len(out); i++ {
		if compareCells(out[i-1], out[i]) == 0 {
			return nil, errDuplicateCell
		}
	}
	return out, nil
}

// tableWire has Table's fields without its methods.
type tableWire Table

func (t Table) MarshalCBOR() ([]byte, error) {
	cells, err := sortedCells(t.Cells)
	if err != nil {
		return nil, err
	}
	t.Cells = cells
	return codec.Marshal(tableWire(t))
}

func (t *Table) UnmarshalCBOR(data []byte) error {
	var w tableWire
	if err := codec.Unmarshal(data, &w); err != nil {
		return err
	}
	cells, err := sortedCells(w.Cells)
	if err != nil {
		return err
	}
	w.Cells = cells
	*t = Table(w)
	return nil
}

var sectionDecoders = map[SectionKind]func(cbor.RawMessage) (SectionContent, error){
	SectionNoteLink:  decodeSection[NoteLink],
	SectionPageLink:  decodeSection[PageLink],
	SectionHeading1:  decodeSection[Heading1],
	SectionHeading2:  decodeSection[Heading2],
	SectionHeading3:  decodeSection[Heading3],
	SectionParagraph: decodeSection[Paragraph],
	SectionBullet:    decodeSection[Bullet],
	SectionNumbered:  decodeSection[Numbered],
	SectionCheckbox:  decodeSection[Checkbox],
	SectionQuote:     decodeSection[Quote],
	SectionCode:      decodeSection[Code],
	SectionBookmark:  decodeSection[Bookmark],
	SectionEmbed:     decodeSection[Embed],
	SectionSecret:    decodeSection[Secret],
	SectionDivider:   decodeSection[Divider],
	SectionFile:      decodeSection[FileRef],
	SectionTable:     decodeSection[Table],
}

func decodeSection[T SectionContent](raw cbor.RawMessage) (SectionContent, error) {
	v, err := codec.DecodeAs[T](raw)
	if err != nil {
		return nil, err
	}
	return v, nil
}

var errEmptySection = errors.New("domain: section has no content")

// Section is one block of a note body.
type Section struct {
	Content SectionContent
	Indent  uint8
}

type sectionWire struct {
	_       struct{} `cbor:",toarray"`
	Content cbor.RawMessage
	Indent  uint8
}

func (s Section) MarshalCBOR() ([]byte, error) {
	if s.Content == nil {
		return nil, errEmptySection
	}
	content, err := codec.MarshalVariant(uint16(s.Content.SectionKind()), s.Content)
	if err != nil {
		return nil, err
	}
	return codec.Marshal(sectionWire{Content: content, Indent: s.Indent})
}

func (s *Section) UnmarshalCBOR(data []byte) error {
	var w sectionWire
	if err := codec.Unmarshal(data, &w); err != nil {
		return err
	}
	v, err := codec.UnmarshalVariant(w.Content)
	if err != nil {
		return err
	}
	decode, ok := sectionDecoders[SectionKind(v.Kind)]
	if !ok {
		return &codec.UnknownKindError{Union: "section", Kind: v.Kind}
	}
	content, err := decode(v.Payload)
	if err != nil {
		return err
	}
	*s = Section{Content: content, Indent: w.Indent}
	return nil
}

func (s Section) MarshalJSON() ([]byte, error) {
	if s.Content == nil {
		return nil, errEmptySection
	}
	return json.Marshal(struct {
		Kind    string         `json:"kind"`
		Content SectionContent `json:"content"`
		Indent  uint8          `json:"indent"`
	}{s.Content.SectionKind().String(), s.Content, s.Indent})
}
