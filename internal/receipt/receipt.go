// Package receipt renders ticket QR codes and order PDFs.
package receipt

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/katmem/ticket-please/internal/model"
)

// DefaultQRSize is the edge length in pixels of a ticket QR image.
const DefaultQRSize = 256

// TicketQR encodes a ticket code as a PNG QR image.
func TicketQR(code string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultQRSize
	}
	qr, err := qrcode.New(code, qrcode.Medium)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(size)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// OrderPDF renders one A4 page per ticket of the order, each with its QR
// code, preceded by a summary page.
func OrderPDF(order *model.Order, holder string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 20)
	pdf.Cell(0, 12, fmt.Sprintf("Order #%d", order.ID))
	pdf.Ln(16)
	pdf.SetFont("Helvetica", "", 12)
	line(pdf, "Customer: %s", holder)
	line(pdf, "Date: %s", order.CreatedAt.UTC().Format("2006-01-02 15:04"))
	if order.Payment != nil {
		line(pdf, "Card: %s ending in %s", order.Payment.CardBrand, order.Payment.CardLast4)
		line(pdf, "Reference: %s", order.Payment.Reference)
	}
	line(pdf, "Tickets: %d", len(order.Tickets))
	line(pdf, "Total: %s", order.Total.StringFixed(2))

	for i, t := range order.Tickets {
		qrPNG, err := TicketQR(t.Code, DefaultQRSize)
		if err != nil {
			return nil, fmt.Errorf("ticket %s qr: %w", t.Code, err)
		}
		name := fmt.Sprintf("qr-%d", i)
		opts := gofpdf.ImageOptions{ImageType: "png"}
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(qrPNG))

		pdf.AddPage()
		section(pdf, t.MovieName)
		pdf.SetFont("Helvetica", "", 12)
		line(pdf, "Theater: %s", t.TheaterName)
		line(pdf, "Screen: %s", t.ScreenName)
		line(pdf, "When: %s %s", t.Program.Day.Format(model.DayLayout), t.Program.HourLabel())
		line(pdf, "Seat: %s", t.Position)
		line(pdf, "Price: %s", t.Price.StringFixed(2))
		line(pdf, "Code: %s", t.Code)
		pdf.ImageOptions(name, 60, pdf.GetY()+6, 90, 0, false, opts, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func line(pdf *gofpdf.Fpdf, format string, args ...any) {
	pdf.Cell(0, 8, fmt.Sprintf(format, args...))
	pdf.Ln(7)
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(0, 10, title, "", 1, "L", true, 0, "")
	pdf.Ln(3)
}
