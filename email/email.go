package email

import (
	"encoding/base64"
	"fmt"
	"net/smtp"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Options describe un correo a enviar. From vacío usa el remitente
// por defecto del transporte.
type Options struct {
	From           string `json:"from,omitempty"`
	To             string `json:"to"`
	Subject        string `json:"subject"`
	Body           string `json:"body"`
	AttachmentPath string `json:"attachment_path,omitempty"`
	AttachmentName string `json:"attachment_name,omitempty"`
}

// Transport envía correos a través de SMTP usando las variables
// de entorno SMTP_HOST/PORT/USER/PASS/FROM.
type Transport struct {
	host string
	port string
	user string
	pass string
	from string
}

func NewTransport() (*Transport, error) {
	t := &Transport{
		host: os.Getenv("SMTP_HOST"),
		port: os.Getenv("SMTP_PORT"),
		user: os.Getenv("SMTP_USER"),
		pass: os.Getenv("SMTP_PASS"),
		from: os.Getenv("SMTP_FROM"),
	}
	if t.from == "" {
		t.from = t.user
	}
	if t.host == "" || t.port == "" || t.user == "" || t.pass == "" || t.from == "" {
		return nil, fmt.Errorf("SMTP environment variables missing")
	}
	return t, nil
}

// Verify comprueba una vez al arranque que el servidor SMTP acepta
// la conexión. Se registra, no se impone.
func (t *Transport) Verify() {
	c, err := smtp.Dial(t.addr())
	if err != nil {
		log.Warnf("[EMAIL] verificación de conexión SMTP falló: %v", err)
		return
	}
	defer c.Close()
	log.Info("[EMAIL] servidor SMTP accesible")
}

// Send transmite el mensaje; adjunta un PDF cuando AttachmentPath existe.
func (t *Transport) Send(opts Options) error {
	if opts.To == "" {
		return fmt.Errorf("destinatario vacío")
	}
	from := opts.From
	if from == "" {
		from = t.from
	}

	var msg []byte
	if opts.AttachmentPath != "" {
		data, err := os.ReadFile(opts.AttachmentPath)
		if err != nil {
			// Sin adjunto se degrada a texto plano.
			log.Warnf("[EMAIL] adjunto no disponible (%v), enviando solo texto a %s", err, opts.To)
			msg = plainMessage(from, opts)
		} else {
			name := opts.AttachmentName
			if name == "" {
				name = "comprobante.pdf"
			}
			msg = multipartMessage(from, opts, name, data)
		}
	} else {
		msg = plainMessage(from, opts)
	}

	auth := smtp.PlainAuth("", t.user, t.pass, t.host)
	if err := smtp.SendMail(t.addr(), auth, from, []string{opts.To}, msg); err != nil {
		return fmt.Errorf("error enviando correo a %s: %w", opts.To, err)
	}
	log.Infof("[EMAIL] mensaje enviado a %s", opts.To)
	return nil
}

func (t *Transport) addr() string {
	return fmt.Sprintf("%s:%s", t.host, t.port)
}

func plainMessage(from string, opts Options) []byte {
	return []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		from, opts.To, opts.Subject, opts.Body))
}

func multipartMessage(from string, opts Options, name string, attachment []byte) []byte {
	const boundary = "===residency-club-boundary==="
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", opts.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", opts.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", boundary)

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(opts.Body)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: application/pdf\r\n")
	b.WriteString("Content-Transfer-Encoding: base64\r\n")
	fmt.Fprintf(&b, "Content-Disposition: attachment; filename=%q\r\n\r\n", name)

	encoded := base64.StdEncoding.EncodeToString(attachment)
	// 76 columnas por línea según RFC 2045
	for len(encoded) > 76 {
		b.WriteString(encoded[:76])
		b.WriteString("\r\n")
		encoded = encoded[76:]
	}
	b.WriteString(encoded)
	fmt.Fprintf(&b, "\r\n--%s--\r\n", boundary)
	return []byte(b.String())
}
