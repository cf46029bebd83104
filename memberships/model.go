package memberships

import "time"

type Plan struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	MaxMembers   int     `json:"max_members"`
	Price        float64 `json:"price"`
	DurationDays int     `json:"duration_days"`
}

type Client struct {
	ID       int    `json:"id"`
	FullName string `json:"nombre_completo"`
	Phone    string `json:"telefono"`
	Email    string `json:"correo"`
}

// MembershipInfo es la vista de una membresía activa junto con su
// titular y tipo; es lo que carga la verificación por QR.
type MembershipInfo struct {
	ID         int       `json:"id_activa"`
	ClientID   int       `json:"id_cliente"`
	ContractID int       `json:"id_membresia"`
	Holder     string    `json:"titular"`
	PlanID     int       `json:"id_tipo_membresia"`
	PlanName   string    `json:"tipo_membresia"`
	StartDate  time.Time `json:"fecha_inicio"`
	EndDate    time.Time `json:"fecha_fin"`
	FinalPrice float64   `json:"precio_final"`
	Status     string    `json:"estado"`
	QRPath     string    `json:"qr_path"`
}

// CreateMembershipInput son los datos del formulario de alta. Los
// campos de precio y fecha de fin que pudiera mandar el cliente se
// ignoran y se recalculan en el servidor.
type CreateMembershipInput struct {
	ClientID        int      `json:"id_cliente"`
	PlanID          int      `json:"id_tipo_membresia"`
	StartDate       string   `json:"fecha_inicio"`
	Discount        float64  `json:"descuento"`
	PaymentMethodID int      `json:"metodo_pago"`
	Members         []string `json:"integrantes"`

	FinalPrice float64 `json:"precio_final,omitempty"`
	EndDate    string  `json:"fecha_fin,omitempty"`
}

// RenewalInput son los datos del formulario de renovación.
type RenewalInput struct {
	ClientID        int      `json:"id_cliente"`
	FullName        string   `json:"nombre_completo"`
	Phone           string   `json:"telefono"`
	Email           string   `json:"correo"`
	PlanID          int      `json:"id_tipo_membresia"`
	PaymentMethodID int      `json:"id_metodo_pago"`
	StartDate       string   `json:"fecha_inicio"`
	Members         []string `json:"integrantes"`
}

// Summary es la confirmación inmediata que recibe la interfaz tras el
// alta, independiente de si la entrega asíncrona del comprobante
// llegó a buen puerto.
type Summary struct {
	ActiveID      int      `json:"id_activa"`
	ContractID    int      `json:"id_membresia"`
	Holder        string   `json:"titular"`
	PlanName      string   `json:"tipo_membresia"`
	StartDate     string   `json:"fecha_inicio"`
	EndDate       string   `json:"fecha_fin"`
	FinalPrice    float64  `json:"precio_final"`
	PaymentMethod string   `json:"metodo_pago"`
	Members       []string `json:"integrantes"`
	QRPath        string   `json:"qr_path"`
}

// Details es la respuesta de la previsualización y el cálculo
// autoritativo del servidor.
type Details struct {
	FinalPrice float64 `json:"precio_final"`
	EndDate    string  `json:"fecha_fin"`
}

// VerificationResult clasifica el estado de una membresía escaneada.
type VerificationResult struct {
	Status        string          `json:"status"` // active | expiring | inactive | error
	Message       string          `json:"message"`
	DaysRemaining int             `json:"days_remaining,omitempty"`
	Membership    *MembershipInfo `json:"membership,omitempty"`
}

// Entry es una fila del registro de entradas (torniquete).
type Entry struct {
	ID        int       `json:"id_entrada"`
	ActiveID  int       `json:"id_activa"`
	Area      string    `json:"area_acceso"`
	Holder    string    `json:"titular"`
	EnteredAt time.Time `json:"fecha_hora_entrada"`
}
