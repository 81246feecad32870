package extract

import (
	"bytes"
	"compress/zlib"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/docqa/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/docqa/pkg/errors"
)

func deflate(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write([]byte(s)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

const winAnsiFont = "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>"

// identityCMap spells ASCII with glyph ids shifted down by 0x1D, the way
// embedded TrueType subsets in Word output do.
const identityCMap = `/CIDInit /ProcSet findresource begin
12 dict begin
begincmap
/CMapName /Adobe-Identity-UCS def
/CMapType 2 def
1 begincodespacerange
<0000> <FFFF>
endcodespacerange
1 beginbfrange
<0003> <005D> <0020>
endbfrange
endcmap
CMapName currentdict /CMap defineresource pop
end
end`

type pdfPage struct {
	content []byte
	flate   bool
}

// buildPDF writes a well-formed single-font PDF with one page per entry and
// a correct cross-reference table.
func buildPDF(t *testing.T, font string, pages ...pdfPage) []byte {
	t.Helper()
	var objects []string
	add := func(body string) int {
		objects = append(objects, body)
		return len(objects)
	}
	stream := func(dict string, data []byte) string {
		return fmt.Sprintf("<< %s/Length %d >>\nstream\n%s\nendstream", dict, len(data), data)
	}

	catalog := add("")
	pagesObj := add("")
	fontObj := add(font)
	if font == "" {
		cmap := add(stream("", []byte(identityCMap)))
		descendant := add("<< /Type /Font /Subtype /CIDFontType2 /BaseFont /ABCDEF+Calibri " +
			"/CIDSystemInfo << /Registry (Adobe) /Ordering (Identity) /Supplement 0 >> >>")
		objects[fontObj-1] = fmt.Sprintf("<< /Type /Font /Subtype /Type0 /BaseFont /ABCDEF+Calibri "+
			"/Encoding /Identity-H /DescendantFonts [%d 0 R] /ToUnicode %d 0 R >>", descendant, cmap)
	}

	var kids []string
	for _, pg := range pages {
		data, dict := pg.content, ""
		if pg.flate {
			data, dict = deflate(t, string(pg.content)), "/Filter /FlateDecode "
		}
		contents := add(stream(dict, data))
		page := add(fmt.Sprintf("<< /Type /Page /Parent %d 0 R /MediaBox [0 0 612 792] "+
			"/Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>", pagesObj, fontObj, contents))
		kids = append(kids, fmt.Sprintf("%d 0 R", page))
	}
	objects[catalog-1] = fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", pagesObj)
	objects[pagesObj-1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(kids))

	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")
	offsets := make([]int, len(objects))
	for i, body := range objects {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, catalog, xref)
	return b.Bytes()
}

func onePage(content string) pdfPage {
	return pdfPage{content: []byte(content)}
}

func TestPDFExtractPlainStream(t *testing.T) {
	content := "BT /F1 12 Tf 72 712 Td (Matrices are arrays of numbers.) Tj ET"
	got, err := PDF{}.Extract(context.Background(), buildPDF(t, winAnsiFont, onePage(content)))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "Matrices are arrays of numbers." {
		t.Errorf("got %q", got)
	}
}

func TestPDFExtractFlateStreamAndOperators(t *testing.T) {
	content := strings.Join([]string{
		"BT",
		"/F1 12 Tf",
		"72 712 Td",
		"[(Multi)-20(plication)-300( of matrices )] TJ",
		"0 -14 Td",
		"(requires \\(matching\\) inner ) Tj",
		"<64696d656e73696f6e73> Tj",
		"ET",
	}, "\n")
	got, err := PDF{}.Extract(context.Background(), buildPDF(t, winAnsiFont, pdfPage{content: []byte(content), flate: true}))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := "Multiplication of matrices requires (matching) inner dimensions"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPDFIdentityFontUsesToUnicode(t *testing.T) {
	content := "BT /F1 12 Tf 72 712 Td <002B0048004F004F0052> Tj ET"
	got, err := PDF{}.Extract(context.Background(), buildPDF(t, "", onePage(content)))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "Hello" {
		t.Errorf("got %q, want %q", got, "Hello")
	}
}

func TestPDFJoinsPages(t *testing.T) {
	pdfData := buildPDF(t, winAnsiFont,
		onePage("BT /F1 12 Tf (first page) Tj ET"),
		onePage("0 0 m 10 10 l S"),
		onePage("BT /F1 12 Tf (third page) Tj ET"),
	)
	got, err := PDF{}.Extract(context.Background(), pdfData)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "first page\nthird page" {
		t.Errorf("got %q", got)
	}

	got, err = PDF{MaxPages: 1}.Extract(context.Background(), pdfData)
	if err != nil || got != "first page" {
		t.Errorf("page limit: got %q, %v", got, err)
	}
}

func TestPDFOctalEscapes(t *testing.T) {
	got, err := PDF{}.Extract(context.Background(), buildPDF(t, winAnsiFont, onePage(`BT /F1 12 Tf (caf\351 \101BC) Tj ET`)))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "café ABC" {
		t.Errorf("got %q", got)
	}
	if n := tokenizer.Normalize(got); n != "caf abc" {
		t.Errorf("normalized: %q", n)
	}
}

func TestPDFErrors(t *testing.T) {
	_, err := PDF{}.Extract(context.Background(), []byte("hello world"))
	if !errors.Is(err, apperrors.ErrExtraction) {
		t.Errorf("non-PDF: got %v", err)
	}
	_, err = PDF{}.Extract(context.Background(), []byte("%PDF-1.4\nnot really a pdf\n%%EOF\n"))
	if !errors.Is(err, apperrors.ErrExtraction) {
		t.Errorf("truncated: got %v", err)
	}
	enc := buildPDF(t, winAnsiFont, onePage("BT /F1 12 Tf (x) Tj ET"))
	enc = bytes.Replace(enc, []byte("/Root 1 0 R >>"), []byte("/Root 1 0 R /Encrypt 99 0 R >>"), 1)
	if _, err := (PDF{}).Extract(context.Background(), enc); !errors.Is(err, apperrors.ErrExtraction) {
		t.Errorf("encrypted: got %v", err)
	}
}

func TestPDFNoText(t *testing.T) {
	got, err := PDF{}.Extract(context.Background(), buildPDF(t, winAnsiFont, onePage("0 0 m 10 10 l S")))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "" {
		t.Errorf("expected no text, got %q", got)
	}
}

func TestPDFHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (PDF{}).Extract(ctx, buildPDF(t, winAnsiFont, onePage("BT /F1 12 Tf (x) Tj ET"))); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v", err)
	}
}

func TestAuto(t *testing.T) {
	a := Auto{}
	got, err := a.Extract(context.Background(), []byte("Plain notes about matrices."))
	if err != nil || got != "Plain notes about matrices." {
		t.Errorf("text: got %q, %v", got, err)
	}
	got, err = a.Extract(context.Background(), buildPDF(t, winAnsiFont, onePage("BT /F1 12 Tf (from pdf) Tj ET")))
	if err != nil || got != "from pdf" {
		t.Errorf("pdf: got %q, %v", got, err)
	}
	if _, err := a.Extract(context.Background(), []byte{0x89, 'P', 'N', 'G', 0, 0}); !errors.Is(err, apperrors.ErrExtraction) {
		t.Errorf("binary: got %v", err)
	}
}
