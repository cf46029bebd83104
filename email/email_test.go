package email

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransportRequiresEnv(t *testing.T) {
	for _, k := range []string{"SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASS", "SMTP_FROM"} {
		t.Setenv(k, "")
	}
	_, err := NewTransport()
	assert.Error(t, err)

	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_PORT", "587")
	t.Setenv("SMTP_USER", "recepcion@residencyclub.com")
	t.Setenv("SMTP_PASS", "secreto")

	tr, err := NewTransport()
	require.NoError(t, err)
	// Sin SMTP_FROM el remitente por defecto es el usuario.
	assert.Equal(t, "recepcion@residencyclub.com", tr.from)
	assert.Equal(t, "smtp.example.com:587", tr.addr())
}

func TestPlainMessageHeaders(t *testing.T) {
	msg := string(plainMessage("recepcion@residencyclub.com", Options{
		To:      "juan@example.com",
		Subject: "Comprobante de Membresía #42",
		Body:    "Su membresía ha sido registrada.",
	}))

	assert.True(t, strings.HasPrefix(msg, "From: recepcion@residencyclub.com\r\n"))
	assert.Contains(t, msg, "To: juan@example.com\r\n")
	assert.Contains(t, msg, "Subject: Comprobante de Membresía #42\r\n")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\nSu membresía ha sido registrada."))
}

func TestMultipartMessageCarriesAttachment(t *testing.T) {
	attachment := []byte("%PDF-1.4 contenido de prueba")
	msg := string(multipartMessage("recepcion@residencyclub.com", Options{
		To:      "juan@example.com",
		Subject: "Comprobante",
		Body:    "Adjunto su comprobante.",
	}, "Comprobante_Membresia_42.pdf", attachment))

	assert.Contains(t, msg, "MIME-Version: 1.0\r\n")
	assert.Contains(t, msg, "Content-Type: multipart/mixed")
	assert.Contains(t, msg, `filename="Comprobante_Membresia_42.pdf"`)
	assert.Contains(t, msg, base64.StdEncoding.EncodeToString(attachment))
	assert.True(t, strings.HasSuffix(msg, "--===residency-club-boundary===--\r\n"))
}

func TestMultipartMessageWrapsBase64Lines(t *testing.T) {
	big := make([]byte, 600)
	msg := string(multipartMessage("a@b.c", Options{To: "x@y.z"}, "f.pdf", big))

	_, body, ok := strings.Cut(msg, "Content-Transfer-Encoding: base64")
	require.True(t, ok)
	for _, line := range strings.Split(body, "\r\n") {
		assert.LessOrEqual(t, len(line), 76)
	}
}
