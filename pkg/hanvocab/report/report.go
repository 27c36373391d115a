package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/width"

	"github.com/cognicore/hanvocab/pkg/hanvocab/vocab"
)

// Column headers shared by every format.
const (
	HeaderIndex = "Index in Tokenizer"
	HeaderToken = "Token"
)

// Row is one reported token.
type Row struct {
	Index int
	Token string
}

// Rows converts a collection to report rows, keeping its order.
func Rows(c vocab.Collection) []Row {
	rows := make([]Row, len(c))
	for i, t := range c {
		rows[i] = Row{Index: t.Index, Token: t.Text}
	}
	return rows
}

// WriteCSV writes rows as a two-column CSV with a header line. Tokens with
// leading whitespace are quoted.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{HeaderIndex, HeaderToken}); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{strconv.Itoa(r.Index), r.Token}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMarkdown writes rows as a pipe table. The index column is right
// aligned, the token column left aligned, and cells are padded by display
// width so wide CJK runes line up.
func WriteMarkdown(w io.Writer, rows []Row) error {
	cells := make([][2]string, len(rows))
	indexW, tokenW := displayWidth(HeaderIndex), displayWidth(HeaderToken)
	for i, r := range rows {
		cells[i] = [2]string{strconv.Itoa(r.Index), escapePipe(r.Token)}
		indexW = max(indexW, displayWidth(cells[i][0]))
		tokenW = max(tokenW, displayWidth(cells[i][1]))
	}

	var b strings.Builder
	writeLine := func(index, token string) {
		b.WriteString("| ")
		b.WriteString(padLeft(index, indexW))
		b.WriteString(" | ")
		b.WriteString(padRight(token, tokenW))
		b.WriteString(" |\n")
	}

	writeLine(HeaderIndex, HeaderToken)
	b.WriteString("|" + strings.Repeat("-", indexW+1) + ":|:" + strings.Repeat("-", tokenW+1) + "|\n")
	for _, c := range cells {
		writeLine(c[0], c[1])
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func escapePipe(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// displayWidth counts East Asian wide and fullwidth runes as two columns.
func displayWidth(s string) int {
	n := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	return n
}

func padLeft(s string, w int) string {
	return strings.Repeat(" ", max(0, w-displayWidth(s))) + s
}

func padRight(s string, w int) string {
	return s + strings.Repeat(" ", max(0, w-displayWidth(s)))
}

// WriteHTML writes rows as a standalone HTML document holding one table.
func WriteHTML(w io.Writer, rows []Row) error {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := element(atom.Html)
	head := element(atom.Head)
	meta := element(atom.Meta)
	meta.Attr = []html.Attribute{{Key: "charset", Val: "utf-8"}}
	head.AppendChild(meta)
	title := element(atom.Title)
	title.AppendChild(text("Chinese vocabulary"))
	head.AppendChild(title)
	root.AppendChild(head)

	table := element(atom.Table)
	thead := element(atom.Thead)
	thead.AppendChild(tableRow(atom.Th, HeaderIndex, HeaderToken))
	table.AppendChild(thead)

	tbody := element(atom.Tbody)
	for _, r := range rows {
		tbody.AppendChild(tableRow(atom.Td, strconv.Itoa(r.Index), r.Token))
	}
	table.AppendChild(tbody)

	body := element(atom.Body)
	body.AppendChild(table)
	root.AppendChild(body)
	doc.AppendChild(root)

	return html.Render(w, doc)
}

func element(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func tableRow(cell atom.Atom, values ...string) *html.Node {
	tr := element(atom.Tr)
	for _, v := range values {
		c := element(cell)
		c.AppendChild(text(v))
		tr.AppendChild(c)
	}
	return tr
}

// Format renders rows into a writer.
type Format func(io.Writer, []Row) error

// WriteFile renders rows to path atomically: the file only appears once it
// has been written completely.
func WriteFile(path string, rows []Row, format Format) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create report %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := format(tmp, rows); err != nil {
		tmp.Close()
		return fmt.Errorf("write report %s: %w", path, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("write report %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}
