package receipts

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"

	"club-backend/whatsapp"
)

// Generator produce los comprobantes en PDF que se adjuntan a los
// mensajes de la cola. Los archivos son temporales: quien los encola
// es responsable de borrarlos después de la entrega.
type Generator struct {
	dir string
}

func NewGenerator(dir string) (*Generator, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("error creando el directorio de comprobantes: %w", err)
	}
	return &Generator{dir: dir}, nil
}

// MembershipReceipt genera el comprobante de una membresía, con el QR
// de acceso embebido cuando qrPath existe. Devuelve la ruta del PDF.
func (g *Generator) MembershipReceipt(data whatsapp.MembershipReceipt, qrPath string) (string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, tr("Hotel Residency Club"), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, tr("COMPROBANTE DE MEMBRESÍA"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 12)
	row := func(label, value string) {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(50, 8, tr(label), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 12)
		pdf.CellFormat(0, 8, tr(value), "", 1, "L", false, 0, "")
	}
	row("Folio:", fmt.Sprintf("#%d", data.ID))
	row("Titular:", data.Holder)
	row("Tipo:", data.PlanName)
	row("Inicio:", data.StartDate)
	row("Vencimiento:", data.EndDate)
	row("Total:", fmt.Sprintf("$%.2f MXN", data.Amount))
	row("Método de pago:", data.PaymentMethod)

	if len(data.Members) > 0 {
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, tr("Integrantes:"), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 12)
		for _, m := range data.Members {
			pdf.CellFormat(0, 7, tr("  • "+m), "", 1, "L", false, 0, "")
		}
	}

	if qrPath != "" {
		if _, err := os.Stat(qrPath); err == nil {
			pdf.Ln(4)
			pdf.SetFont("Helvetica", "", 10)
			pdf.CellFormat(0, 6, tr("Escanea el código QR para verificar tu membresía:"), "", 1, "L", false, 0, "")
			pdf.ImageOptions(qrPath, pdf.GetX()+5, pdf.GetY()+2, 45, 45, false,
				gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}, 0, "")
		}
	}

	path := filepath.Join(g.dir, fmt.Sprintf("comprobante_membresia_%d_%s.pdf", data.ID, shortID()))
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("error generando el PDF del comprobante: %w", err)
	}
	return path, nil
}

// RentReceipt genera el comprobante de una renta o reservación.
func (g *Generator) RentReceipt(data whatsapp.RentReceipt) (string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	titulo := "COMPROBANTE DE RENTA"
	prefix := "comprobante_renta"
	if data.Type == "reservation" {
		titulo = "COMPROBANTE DE RESERVACIÓN"
		prefix = "comprobante_reservacion"
	}

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, tr("Hotel Residency Club"), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, tr(titulo), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	row := func(label, value string) {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(50, 8, tr(label), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 12)
		pdf.CellFormat(0, 8, tr(value), "", 1, "L", false, 0, "")
	}
	row("Número:", fmt.Sprintf("#%d", data.ID))
	row("Cliente:", data.ClientName)
	row("Habitación:", "#"+data.RoomNumber)
	row("Check-in:", data.CheckIn)
	row("Check-out:", data.CheckOut)
	row("Total:", fmt.Sprintf("$%.2f MXN", data.Total))

	path := filepath.Join(g.dir, fmt.Sprintf("%s_%d_%s.pdf", prefix, data.ID, shortID()))
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("error generando el PDF del comprobante: %w", err)
	}
	return path, nil
}

func shortID() string {
	return uuid.New().String()[:8]
}
