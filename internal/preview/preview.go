// Package preview renders a deck as a printable PDF, one block per card.
package preview

import (
    "fmt"

    "github.com/jung-kurt/gofpdf"

    "github.com/hiAndrewQuinn/table2anki/internal/deck"
)

// WritePDF writes every card of d to outPath. Each card shows its fields in
// order, a rule, and then the fields again, mirroring the answer template.
// Text is translated to cp1252; characters outside that code page are lost.
func WritePDF(d *deck.Deck, outPath string) error {
    pdf := gofpdf.New("P", "mm", "A4", "")
    tr := pdf.UnicodeTranslatorFromDescriptor("")
    pdf.SetTitle(tr(d.Name), false)
    pdf.SetFont("Helvetica", "", 11)
    pdf.AddPage()

    pdf.SetFont("Helvetica", "B", 14)
    pdf.CellFormat(0, 8, tr(d.Name), "", 1, "L", false, 0, "")
    pdf.SetFont("Helvetica", "", 9)
    pdf.CellFormat(0, 5, fmt.Sprintf("%d cards", d.Len()), "", 1, "L", false, 0, "")
    pdf.Ln(4)

    n := 0
    for _, g := range d.Groups {
        for _, c := range g.Cards {
            n++
            pdf.SetFont("Helvetica", "B", 11)
            pdf.CellFormat(0, 6, fmt.Sprintf("Card %d", n), "", 1, "L", false, 0, "")
            pdf.SetFont("Helvetica", "", 11)
            for i, f := range g.Schema.Fields {
                pdf.MultiCell(0, 5, tr(f+": "+c.Values[i]), "", "L", false)
            }
            left, _, right, _ := pdf.GetMargins()
            pageW, _ := pdf.GetPageSize()
            y := pdf.GetY() + 1
            pdf.Line(left, y, pageW-right, y)
            pdf.Ln(2)
            for i := range g.Schema.Fields {
                pdf.MultiCell(0, 5, tr(c.Values[i]), "", "L", false)
            }
            pdf.Ln(5)
        }
    }

    return pdf.OutputFileAndClose(outPath)
}
