package jobqueue

import (
	"database/sql"
	"time"

	"club-backend/email"
	"club-backend/whatsapp"
)

// Kind identifica el servicio que debe ejecutar una tarea.
type Kind string

const (
	KindEmail              Kind = "email"
	KindWhatsAppRent       Kind = "whatsapp_renta"
	KindWhatsAppMembership Kind = "whatsapp_membresia"
)

// Estados de una tarea. failed sigue siendo elegible para reintento
// mientras attempts esté por debajo del tope; dead es terminal.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusDead       = "dead"
)

// Job es una fila de job_queue.
type Job struct {
	ID            int
	Service       Kind
	Payload       []byte
	Status        string
	Attempts      int
	LastAttemptAt sql.NullTime
	ErrorMessage  sql.NullString
	CreatedAt     time.Time
}

// EmailPayload es la carga de una tarea de correo.
type EmailPayload struct {
	MailOptions email.Options `json:"mailOptions"`
}

// MembershipPayload es la carga de un comprobante de membresía por
// WhatsApp.
type MembershipPayload struct {
	Phone          string                     `json:"telefono"`
	MembershipData whatsapp.MembershipReceipt `json:"membershipData"`
	PDFPath        string                     `json:"pdfPath,omitempty"`
}

// RentPayload es la carga de un comprobante de renta por WhatsApp.
type RentPayload struct {
	Phone    string               `json:"telefono"`
	RentData whatsapp.RentReceipt `json:"rentData"`
	PDFPath  string               `json:"pdfPath,omitempty"`
}
