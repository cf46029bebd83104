package memberships

import (
	"errors"
	"fmt"
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	"club-backend/email"
	"club-backend/receipts"
	"club-backend/whatsapp"
)

// ErrValidation marca errores que el llamador HTTP debe reportar como
// 4xx en lugar de 500.
var ErrValidation = errors.New("datos inválidos")

// ReceiptQueue es lo que el servicio necesita de la cola de trabajos:
// encolar entregas de comprobantes, nada más.
type ReceiptQueue interface {
	AddEmailJob(opts email.Options) error
	AddMembershipJob(phone string, data whatsapp.MembershipReceipt, pdfPath string) error
}

type Service struct {
	repo     *Repository
	queue    ReceiptQueue
	receipts *receipts.Generator
	qrDir    string
	now      func() time.Time
}

func NewService(repo *Repository, queue ReceiptQueue, gen *receipts.Generator, qrDir string) *Service {
	return &Service{
		repo:     repo,
		queue:    queue,
		receipts: gen,
		qrDir:    qrDir,
		now:      time.Now,
	}
}

// CalculateDetails es el cálculo puro de precio final y fecha de fin.
// Para (plan, fecha, descuento) fijos siempre produce el mismo
// resultado; el descuento se acota a [0,100].
func CalculateDetails(plan Plan, startDate string, discount float64) (Details, error) {
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return Details{}, fmt.Errorf("%w: fecha de inicio inválida", ErrValidation)
	}
	duration := plan.DurationDays
	if duration <= 0 {
		duration = 30
	}
	end := start.AddDate(0, 0, duration)

	clamped := math.Max(0, math.Min(100, discount))
	price := plan.Price - plan.Price*(clamped/100)
	price = math.Round(price*100) / 100

	return Details{FinalPrice: price, EndDate: end.Format("2006-01-02")}, nil
}

// CalculateMembershipDetails carga el plan y calcula los valores
// autoritativos. Lo usa tanto la previsualización como el alta, de
// modo que cliente y servidor coinciden salvo manipulación.
func (s *Service) CalculateMembershipDetails(planID int, startDate string, discount float64) (Details, error) {
	if planID <= 0 || startDate == "" {
		return Details{}, fmt.Errorf("%w: el tipo de membresía y la fecha de inicio son requeridos", ErrValidation)
	}
	plan, err := s.repo.GetPlanByID(planID)
	if err != nil {
		return Details{}, err
	}
	if plan == nil {
		return Details{}, fmt.Errorf("%w: el tipo de membresía no es válido", ErrValidation)
	}
	return CalculateDetails(*plan, startDate, discount)
}

// CreateCompleteMembership orquesta el alta completa: contrato,
// activación, integrantes, QR, pago y encolado de comprobantes. Los
// insertos son secuenciales; un fallo tardío no revierte los previos.
func (s *Service) CreateCompleteMembership(input CreateMembershipInput) (*Summary, error) {
	plan, err := s.repo.GetPlanByID(input.PlanID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, fmt.Errorf("%w: el tipo de membresía no es válido", ErrValidation)
	}
	if len(input.Members) > plan.MaxMembers-1 {
		return nil, fmt.Errorf("%w: el plan %s admite máximo %d integrantes adicionales", ErrValidation, plan.Name, plan.MaxMembers-1)
	}

	client, err := s.repo.GetClientByID(input.ClientID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, fmt.Errorf("%w: el cliente no existe", ErrValidation)
	}

	// Se ignoran el precio y fecha_fin enviados por el cliente y se
	// recalculan en el servidor.
	details, err := CalculateDetails(*plan, input.StartDate, input.Discount)
	if err != nil {
		return nil, err
	}

	contractID, err := s.repo.CreateContract(client.ID, plan.ID, input.StartDate, details.EndDate)
	if err != nil {
		return nil, fmt.Errorf("error creando el contrato: %w", err)
	}
	activeID, err := s.repo.CreateActivation(client.ID, contractID, input.StartDate, details.EndDate, details.FinalPrice)
	if err != nil {
		return nil, fmt.Errorf("error activando la membresía: %w", err)
	}
	if err := s.repo.AddFamilyMembers(activeID, input.Members); err != nil {
		return nil, fmt.Errorf("error registrando integrantes: %w", err)
	}

	qrPath, qrFile, err := generateQRFile(s.qrDir, buildQRPayload(activeID), activeID, client.FullName)
	if err != nil {
		// La membresía ya existe; el QR se puede regenerar después.
		log.Errorf("[Memberships] error generando QR de la membresía #%d: %v", activeID, err)
	} else if err := s.repo.UpdateQRPath(activeID, qrPath); err != nil {
		log.Errorf("[Memberships] error guardando la ruta del QR: %v", err)
	}

	methodName := "No especificado"
	if input.PaymentMethodID > 0 {
		if err := s.repo.RecordPayment(activeID, input.PaymentMethodID, details.FinalPrice); err != nil {
			return nil, fmt.Errorf("error registrando el pago: %w", err)
		}
		if name, err := s.repo.GetPaymentMethodName(input.PaymentMethodID); err == nil && name != "" {
			methodName = name
		}
	}

	members, err := s.repo.GetFamilyMembers(activeID)
	if err != nil {
		log.Errorf("[Memberships] error leyendo integrantes: %v", err)
		members = input.Members
	}

	s.enqueueReceipts(activeID, *client, plan.Name, input.StartDate, details, methodName, members, qrFile)

	return &Summary{
		ActiveID:      activeID,
		ContractID:    contractID,
		Holder:        client.FullName,
		PlanName:      plan.Name,
		StartDate:     input.StartDate,
		EndDate:       details.EndDate,
		FinalPrice:    details.FinalPrice,
		PaymentMethod: methodName,
		Members:       members,
		QRPath:        qrPath,
	}, nil
}

// RenewMembership marca la activación anterior como Vencida y repite
// el ciclo contrato/activación/pago con los datos nuevos. Los
// integrantes no se arrastran: la lista enviada reemplaza a la previa.
func (s *Service) RenewMembership(activeID int, input RenewalInput) (*Summary, error) {
	old, err := s.repo.GetActiveMembership(activeID)
	if err != nil {
		return nil, err
	}
	if old == nil {
		return nil, fmt.Errorf("%w: la membresía que intenta renovar no existe", ErrValidation)
	}

	// Actualizar datos de contacto del titular.
	if err := s.repo.UpdateClient(&Client{ID: input.ClientID, FullName: input.FullName, Phone: input.Phone, Email: input.Email}); err != nil {
		return nil, fmt.Errorf("error actualizando el cliente: %w", err)
	}

	if err := s.repo.MarkExpired(activeID); err != nil {
		return nil, fmt.Errorf("error marcando la membresía anterior: %w", err)
	}

	// Descuento no aplica en renovación.
	return s.CreateCompleteMembership(CreateMembershipInput{
		ClientID:        input.ClientID,
		PlanID:          input.PlanID,
		StartDate:       input.StartDate,
		Discount:        0,
		PaymentMethodID: input.PaymentMethodID,
		Members:         input.Members,
	})
}

// UpdateFamilyMembers reemplaza la lista de integrantes de una
// activación, respetando el tope del plan. Lo usa el mostrador para
// corregir integrantes sin renovar.
func (s *Service) UpdateFamilyMembers(activeID int, names []string) ([]string, error) {
	m, err := s.repo.GetActiveMembership(activeID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("%w: la membresía no existe", ErrValidation)
	}
	plan, err := s.repo.GetPlanByID(m.PlanID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, fmt.Errorf("%w: el tipo de membresía no es válido", ErrValidation)
	}
	if len(names) > plan.MaxMembers-1 {
		return nil, fmt.Errorf("%w: el plan %s admite máximo %d integrantes adicionales", ErrValidation, plan.Name, plan.MaxMembers-1)
	}

	if err := s.repo.DeleteFamilyMembers(activeID); err != nil {
		return nil, fmt.Errorf("error eliminando integrantes previos: %w", err)
	}
	if err := s.repo.AddFamilyMembers(activeID, names); err != nil {
		return nil, fmt.Errorf("error registrando integrantes: %w", err)
	}
	return s.repo.GetFamilyMembers(activeID)
}

// enqueueReceipts genera el PDF y encola la entrega por correo y
// WhatsApp según los datos de contacto del titular. La entrega es
// fire-and-forget respecto a la respuesta HTTP.
func (s *Service) enqueueReceipts(activeID int, client Client, planName, startDate string, details Details, methodName string, members []string, qrFile string) {
	if s.queue == nil {
		return
	}
	data := whatsapp.MembershipReceipt{
		ID:            activeID,
		Holder:        client.FullName,
		PlanName:      planName,
		StartDate:     startDate,
		EndDate:       details.EndDate,
		Amount:        details.FinalPrice,
		PaymentMethod: methodName,
		Members:       members,
	}

	// Cada canal recibe su propia copia del PDF: las tareas eliminan su
	// adjunto al completarse, y un archivo compartido dejaría sin adjunto
	// a la tarea que drene en segundo lugar.
	if client.Email != "" {
		body := fmt.Sprintf("Estimado/a %s,\n\nSu membresía %s ha sido registrada.\nFolio: #%d\nVigencia: %s a %s\nTotal: $%.2f MXN\n\nGracias por elegirnos.\nHotel Residency Club",
			client.FullName, planName, activeID, startDate, details.EndDate, details.FinalPrice)
		err := s.queue.AddEmailJob(email.Options{
			To:             client.Email,
			Subject:        fmt.Sprintf("Comprobante de Membresía #%d", activeID),
			Body:           body,
			AttachmentPath: s.receiptPDF(data, qrFile),
			AttachmentName: fmt.Sprintf("Comprobante_Membresia_%d.pdf", activeID),
		})
		if err != nil {
			log.Errorf("[Memberships] error encolando el comprobante por correo: %v", err)
		}
	}
	if client.Phone != "" {
		if err := s.queue.AddMembershipJob(client.Phone, data, s.receiptPDF(data, qrFile)); err != nil {
			log.Errorf("[Memberships] error encolando el comprobante por WhatsApp: %v", err)
		}
	}
}

// receiptPDF genera una copia del comprobante para un solo canal de
// entrega. Vacío si el generador no está configurado o falla: la
// entrega se degrada a solo texto.
func (s *Service) receiptPDF(data whatsapp.MembershipReceipt, qrFile string) string {
	if s.receipts == nil {
		return ""
	}
	p, err := s.receipts.MembershipReceipt(data, qrFile)
	if err != nil {
		log.Errorf("[Memberships] error generando el PDF del comprobante: %v", err)
		return ""
	}
	return p
}
