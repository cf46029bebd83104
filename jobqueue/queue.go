package jobqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"club-backend/email"
	"club-backend/whatsapp"
)

const (
	processInterval    = 30 * time.Second
	startupDrainDelay  = 5 * time.Second
	defaultMaxAttempts = 10
)

// Handler ejecuta la carga de una tarea de su tipo. Un error marca la
// tarea como failed (o dead al agotar los intentos).
type Handler func(ctx context.Context, payload json.RawMessage) error

// ConnectivityChecker reporta el último estado conocido de la conexión.
type ConnectivityChecker interface {
	IsInternetConnected() bool
}

// Queue procesa tareas de notificación persistidas en job_queue cuando
// hay conexión a Internet. Las tareas de un ciclo se ejecutan en forma
// secuencial, nunca en paralelo.
type Queue struct {
	repo         *Repository
	connectivity ConnectivityChecker
	handlers     map[Kind]Handler
	maxAttempts  int

	mu           sync.Mutex
	isProcessing bool

	stop chan struct{}
	done chan struct{}
}

func New(repo *Repository, connectivity ConnectivityChecker) *Queue {
	return &Queue{
		repo:         repo,
		connectivity: connectivity,
		handlers:     map[Kind]Handler{},
		maxAttempts:  defaultMaxAttempts,
	}
}

// Register asocia un tipo de tarea con su manejador. Los tipos sin
// manejador registrado se descartan como dead al ejecutarse.
func (q *Queue) Register(kind Kind, h Handler) {
	q.handlers[kind] = h
}

// AddEmailJob encola un correo. El payload se valida al serializar,
// de modo que una fila malformada no puede persistirse.
func (q *Queue) AddEmailJob(opts email.Options) error {
	return q.add(KindEmail, EmailPayload{MailOptions: opts})
}

// AddMembershipJob encola un comprobante de membresía por WhatsApp.
func (q *Queue) AddMembershipJob(phone string, data whatsapp.MembershipReceipt, pdfPath string) error {
	return q.add(KindWhatsAppMembership, MembershipPayload{Phone: phone, MembershipData: data, PDFPath: pdfPath})
}

// AddRentJob encola un comprobante de renta o reservación por WhatsApp.
func (q *Queue) AddRentJob(phone string, data whatsapp.RentReceipt, pdfPath string) error {
	return q.add(KindWhatsAppRent, RentPayload{Phone: phone, RentData: data, PDFPath: pdfPath})
}

func (q *Queue) add(kind Kind, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("payload inválido para %s: %w", kind, err)
	}
	if _, err := q.repo.Insert(kind, raw); err != nil {
		return fmt.Errorf("error agregando la tarea a la cola: %w", err)
	}
	log.Infof("[JobQueue] Nueva tarea agregada para el servicio: %s", kind)

	// Intentar procesar inmediatamente si hay conexión.
	if q.connectivity.IsInternetConnected() {
		go q.ProcessQueue(context.Background())
	}
	return nil
}

// ProcessQueue drena las tareas elegibles. No hace nada si ya hay un
// drenado en curso o no hay conexión.
func (q *Queue) ProcessQueue(ctx context.Context) {
	q.mu.Lock()
	if q.isProcessing {
		q.mu.Unlock()
		log.Debug("[JobQueue] El procesamiento ya está en curso.")
		return
	}
	if !q.connectivity.IsInternetConnected() {
		q.mu.Unlock()
		log.Info("[JobQueue] Sin conexión a Internet. El procesamiento se pospone.")
		return
	}
	q.isProcessing = true
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		q.isProcessing = false
		q.mu.Unlock()
	}()

	jobs, err := q.repo.SelectEligible(q.maxAttempts)
	if err != nil {
		log.Errorf("[JobQueue] Error al buscar tareas pendientes: %v", err)
		return
	}
	if len(jobs) == 0 {
		return
	}
	log.Infof("[JobQueue] Se encontraron %d tareas pendientes. Procesando...", len(jobs))

	for _, job := range jobs {
		q.executeJob(ctx, job)
	}
}

func (q *Queue) executeJob(ctx context.Context, job Job) {
	if err := q.repo.MarkProcessing(job.ID); err != nil {
		log.Errorf("[JobQueue] Error al marcar la tarea #%d: %v", job.ID, err)
		return
	}
	attempts := job.Attempts + 1

	if !json.Valid(job.Payload) {
		// Un payload ilegible jamás va a parsear; reintentar sería un
		// ciclo infinito.
		log.Errorf("[JobQueue] Tarea #%d descartada: payload con formato JSON inválido.", job.ID)
		q.markDead(job.ID, "Invalid JSON payload")
		return
	}

	handler, ok := q.handlers[job.Service]
	if !ok {
		log.Errorf("[JobQueue] Tarea #%d descartada: servicio desconocido %q.", job.ID, job.Service)
		q.markDead(job.ID, fmt.Sprintf("Servicio desconocido en la cola de trabajos: %s", job.Service))
		return
	}

	if err := handler(ctx, json.RawMessage(job.Payload)); err != nil {
		log.Errorf("[JobQueue] Error al ejecutar la tarea #%d (%s): %v", job.ID, job.Service, err)
		if attempts >= q.maxAttempts {
			q.markDead(job.ID, err.Error())
			return
		}
		if mErr := q.repo.MarkFailed(job.ID, err.Error()); mErr != nil {
			log.Errorf("[JobQueue] Error al actualizar la tarea #%d: %v", job.ID, mErr)
		}
		return
	}

	if err := q.repo.MarkCompleted(job.ID); err != nil {
		log.Errorf("[JobQueue] Error al actualizar la tarea #%d: %v", job.ID, err)
		return
	}
	log.Infof("[JobQueue] Tarea #%d (%s) completada exitosamente.", job.ID, job.Service)
}

func (q *Queue) markDead(id int, msg string) {
	if err := q.repo.MarkDead(id, msg); err != nil {
		log.Errorf("[JobQueue] Error al descartar la tarea #%d: %v", id, err)
	}
}

// Start lanza el drenado periódico más un drenado inicial diferido
// para recuperar tareas de un proceso anterior.
func (q *Queue) Start() {
	log.Infof("[JobQueue] Servicio de cola iniciado. Verificando tareas pendientes cada %s.", processInterval)
	q.stop = make(chan struct{})
	q.done = make(chan struct{})
	go func() {
		defer close(q.done)
		ticker := time.NewTicker(processInterval)
		defer ticker.Stop()
		startup := time.NewTimer(startupDrainDelay)
		defer startup.Stop()
		for {
			select {
			case <-startup.C:
				q.ProcessQueue(context.Background())
			case <-ticker.C:
				q.ProcessQueue(context.Background())
			case <-q.stop:
				return
			}
		}
	}()
}

func (q *Queue) Stop() {
	if q.stop == nil {
		return
	}
	close(q.stop)
	<-q.done
	q.stop = nil
}
