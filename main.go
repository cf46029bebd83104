package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"club-backend/conn"
	"club-backend/connectivity"
	"club-backend/email"
	"club-backend/jobqueue"
	"club-backend/login"
	"club-backend/memberships"
	"club-backend/migrations"
	"club-backend/receipts"
	"club-backend/whatsapp"
)

const publicDir = "public"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn("[Main] No se encontró archivo .env; usando variables del entorno.")
	}
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if os.Getenv("LOG_LEVEL") == "debug" {
		log.SetLevel(log.DebugLevel)
	}

	db, err := conn.NewMySQL()
	if err != nil {
		log.Fatalf("[Main] Error al conectar con MySQL: %v", err)
	}
	defer db.Close()

	migrations.Init(db)
	if err := migrations.Migrate(); err != nil {
		log.Fatalf("[Main] Error al ejecutar las migraciones: %v", err)
	}
	migrations.SeedDefaultUser()
	migrations.SeedDefaultPlans()
	migrations.SeedPaymentMethods()

	monitor := connectivity.NewMonitor()
	monitor.Start()
	defer monitor.Stop()

	transport, err := email.NewTransport()
	if err != nil {
		log.Warnf("[Main] Correo deshabilitado: %v", err)
	} else {
		transport.Verify()
	}

	var wa *whatsapp.Client
	if os.Getenv("WHATSAPP_ENABLED") != "false" {
		wa, err = whatsapp.NewClient(publicDir)
		if err != nil {
			log.Warnf("[Main] WhatsApp deshabilitado: %v", err)
			wa = nil
		} else if err := wa.Start(); err != nil {
			log.Warnf("[Main] WhatsApp no pudo iniciar sesión: %v", err)
			wa = nil
		} else {
			defer wa.Stop()
		}
	}

	queue := jobqueue.New(jobqueue.NewRepository(db), monitor)
	registerJobHandlers(queue, transport, wa)

	qrDir := publicDir + "/uploads/qrs"
	if err := os.MkdirAll(qrDir, 0o755); err != nil {
		log.Fatalf("[Main] No se pudo crear el directorio de QRs: %v", err)
	}
	gen, err := receipts.NewGenerator(publicDir + "/uploads/receipts")
	if err != nil {
		log.Fatalf("[Main] No se pudo crear el directorio de comprobantes: %v", err)
	}

	repo := memberships.NewRepository(db)
	svc := memberships.NewService(repo, queue, gen, qrDir)

	r := gin.Default()
	r.Static("/uploads", publicDir+"/uploads")
	r.StaticFile("/whatsapp-qr", publicDir+"/whatsapp-qr.png")

	r.POST("/login", login.Handler)
	r.GET("/me", login.SessionHandler)
	r.POST("/logout", login.LogoutHandler)
	r.POST("/refresh", login.RefreshHandler)
	r.POST("/change-password", login.ChangePasswordHandler)

	memberships.NewHandler(svc, repo).RegisterRoutes(r, login.RequireAuth())

	queue.Start()
	defer queue.Stop()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	go func() {
		if err := r.Run(":" + port); err != nil {
			log.Fatalf("[Main] Error del servidor HTTP: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("[Main] Señal recibida. Cerrando servicios...")
}

// registerJobHandlers conecta cada tipo de tarea con su transporte. Los
// transportes ausentes devuelven error para que la cola reintente la
// tarea en el siguiente ciclo.
func registerJobHandlers(queue *jobqueue.Queue, transport *email.Transport, wa *whatsapp.Client) {
	queue.Register(jobqueue.KindEmail, func(ctx context.Context, raw json.RawMessage) error {
		if transport == nil {
			return fmt.Errorf("el transporte de correo no está configurado")
		}
		var p jobqueue.EmailPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return err
		}
		if err := transport.Send(p.MailOptions); err != nil {
			return err
		}
		removeReceipt(p.MailOptions.AttachmentPath)
		return nil
	})

	queue.Register(jobqueue.KindWhatsAppMembership, func(ctx context.Context, raw json.RawMessage) error {
		if wa == nil {
			return fmt.Errorf("el cliente de WhatsApp no está disponible")
		}
		var p jobqueue.MembershipPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return err
		}
		if err := wa.SendMembershipReceipt(ctx, p.Phone, p.MembershipData, p.PDFPath); err != nil {
			return err
		}
		removeReceipt(p.PDFPath)
		return nil
	})

	queue.Register(jobqueue.KindWhatsAppRent, func(ctx context.Context, raw json.RawMessage) error {
		if wa == nil {
			return fmt.Errorf("el cliente de WhatsApp no está disponible")
		}
		var p jobqueue.RentPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return err
		}
		if err := wa.SendRentReceipt(ctx, p.Phone, p.RentData, p.PDFPath); err != nil {
			return err
		}
		removeReceipt(p.PDFPath)
		return nil
	})
}

// removeReceipt limpia el PDF temporal una vez entregado. Cada tarea
// es dueña de su propia copia del comprobante, así que borrarla no
// afecta a otras entregas pendientes.
func removeReceipt(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warnf("[Main] no se pudo eliminar el comprobante temporal %s: %v", path, err)
	}
}
