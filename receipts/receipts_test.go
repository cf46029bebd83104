package receipts

import (
	"path/filepath"
	"strings"
	"testing"

	qrcode "github.com/skip2/go-qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"rsc.io/pdf"
)

func extractText(t *testing.T, path string) string {
	t.Helper()
	r, err := pdf.Open(path)
	require.NoError(t, err)
	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		for _, txt := range p.Content().Text {
			b.WriteString(txt.S)
		}
	}
	return b.String()
}

func TestMembershipReceiptHasTextLayer(t *testing.T) {
	g, err := NewGenerator(t.TempDir())
	require.NoError(t, err)

	path, err := g.MembershipReceipt(membershipFixture(), "")
	require.NoError(t, err)

	text := extractText(t, path)
	assert.Contains(t, text, "Juan Perez")
	assert.Contains(t, text, "Familiar")
	assert.Contains(t, text, "$450.00 MXN")
	assert.Contains(t, text, "Maria Perez")
}

func TestMembershipReceiptEmbedsQRImage(t *testing.T) {
	dir := t.TempDir()
	qrPath := filepath.Join(dir, "qr.png")
	require.NoError(t, qrcode.WriteFile(`{"id_activa":42}`, qrcode.High, 320, qrPath))

	g, err := NewGenerator(dir)
	require.NoError(t, err)

	path, err := g.MembershipReceipt(membershipFixture(), qrPath)
	require.NoError(t, err)

	// Con imagen embebida el PDF crece de forma notoria.
	r, err := pdf.Open(path)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, r.NumPage(), 1)
}

func TestRentReceiptDistinguishesReservations(t *testing.T) {
	g, err := NewGenerator(t.TempDir())
	require.NoError(t, err)

	path, err := g.RentReceipt(rentFixture("reservation"))
	require.NoError(t, err)
	assert.Contains(t, filepath.Base(path), "comprobante_reservacion_")

	text := extractText(t, path)
	assert.Contains(t, text, "Ana Torres")
}
