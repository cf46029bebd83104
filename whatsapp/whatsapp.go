package whatsapp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"
	qrcode "github.com/skip2/go-qrcode"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"
)

const (
	maxQRRetries   = 5
	reconnectDelay = 5 * time.Second
	pairingQRFile  = "whatsapp-qr.png"
)

// Client envuelve una sesión multi-dispositivo de WhatsApp. En el
// primer arranque (o tras un cierre de sesión forzado) emite un QR de
// vinculación como imagen PNG bajo publicDir.
type Client struct {
	wa        *whatsmeow.Client
	container *sqlstore.Container
	publicDir string

	mu        sync.RWMutex
	connected bool
	qrRetries int
}

// NewClient abre el almacén de sesión (sqlite) y prepara el socket.
// No conecta; llamar Start.
func NewClient(publicDir string) (*Client, error) {
	sessionDB := os.Getenv("WHATSAPP_SESSION_DB")
	if sessionDB == "" {
		sessionDB = "whatsapp_session.db"
	}
	container, err := sqlstore.New("sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on", sessionDB), waLog.Noop)
	if err != nil {
		return nil, fmt.Errorf("error abriendo el almacén de sesión de WhatsApp: %w", err)
	}
	device, err := container.GetFirstDevice()
	if err != nil {
		return nil, err
	}
	c := &Client{
		wa:        whatsmeow.NewClient(device, waLog.Noop),
		container: container,
		publicDir: publicDir,
	}
	c.wa.AddEventHandler(c.handleEvent)
	return c, nil
}

// Start conecta. Si no hay sesión guardada, consume el canal de QR y
// escribe cada código como PNG hasta maxQRRetries; agotados los
// intentos se fuerza un ciclo completo de reconexión.
func (c *Client) Start() error {
	if c.wa.Store.ID == nil {
		log.Warn("[WhatsApp] No se encontró una sesión guardada. Se generará un código QR de vinculación.")
		qrChan, err := c.wa.GetQRChannel(context.Background())
		if err != nil {
			return err
		}
		if err := c.wa.Connect(); err != nil {
			return err
		}
		go c.consumeQR(qrChan)
		return nil
	}
	log.Info("[WhatsApp] Sesión encontrada. Intentando conectar...")
	return c.wa.Connect()
}

func (c *Client) Stop() {
	c.wa.Disconnect()
}

// IsConnected devuelve el estado actual reportado por los eventos de
// conexión.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

func (c *Client) handleEvent(evt interface{}) {
	switch evt.(type) {
	case *events.Connected:
		c.mu.Lock()
		c.connected = true
		c.qrRetries = 0
		c.mu.Unlock()
		log.Info("[WhatsApp] ¡Conectado exitosamente! Los comprobantes se enviarán automáticamente.")
	case *events.Disconnected:
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
		log.Warn("[WhatsApp] Conexión cerrada.")
	case *events.LoggedOut:
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
		log.Warn("[WhatsApp] Sesión cerrada desde el teléfono. Se requiere vincular de nuevo.")
		// Sesión inválida: limpiar credenciales y rearrancar el ciclo.
		if c.wa.Store.ID != nil {
			if err := c.wa.Store.Delete(); err != nil {
				log.Errorf("[WhatsApp] error limpiando la sesión: %v", err)
			}
		}
		time.AfterFunc(reconnectDelay, func() {
			if err := c.Start(); err != nil {
				log.Errorf("[WhatsApp] error reiniciando la conexión: %v", err)
			}
		})
	}
}

func (c *Client) consumeQR(ch <-chan whatsmeow.QRChannelItem) {
	for item := range ch {
		switch item.Event {
		case "code":
			c.mu.Lock()
			c.qrRetries++
			retries := c.qrRetries
			c.mu.Unlock()

			if retries > maxQRRetries {
				log.Errorf("[WhatsApp] Máximo de intentos de QR (%d) alcanzado. Reiniciando el ciclo de conexión...", maxQRRetries)
				c.mu.Lock()
				c.qrRetries = 0
				c.mu.Unlock()
				c.wa.Disconnect()
				time.AfterFunc(reconnectDelay, func() {
					if err := c.Start(); err != nil {
						log.Errorf("[WhatsApp] error reiniciando la conexión: %v", err)
					}
				})
				return
			}
			c.writePairingQR(item.Code, retries)
		case "timeout":
			log.Warn("[WhatsApp] El código QR expiró sin ser escaneado.")
		case "success":
			log.Info("[WhatsApp] Vinculación completada.")
			return
		}
	}
}

func (c *Client) writePairingQR(code string, attempt int) {
	path := filepath.Join(c.publicDir, pairingQRFile)
	if err := qrcode.WriteFile(code, qrcode.Medium, 300, path); err != nil {
		log.Errorf("[WhatsApp] error generando la imagen del QR: %v", err)
		return
	}
	log.Infof("[WhatsApp] Código QR de vinculación generado (intento %d/%d). Escanéalo desde /whatsapp-qr", attempt, maxQRRetries)
}

// SendMembershipReceipt envía el mensaje de comprobante y, si el PDF
// existe en disco, lo adjunta. Sin PDF se degrada a solo texto y aun
// así se reporta éxito.
func (c *Client) SendMembershipReceipt(ctx context.Context, phone string, data MembershipReceipt, pdfPath string) error {
	fileName := fmt.Sprintf("Comprobante_Membresia_%d.pdf", data.ID)
	return c.sendReceipt(ctx, phone, membershipMessage(data), pdfPath, fileName)
}

// SendRentReceipt es el equivalente para comprobantes de renta o
// reservación.
func (c *Client) SendRentReceipt(ctx context.Context, phone string, data RentReceipt, pdfPath string) error {
	fileName := fmt.Sprintf("Comprobante_Renta_%d.pdf", data.ID)
	if data.Type == "reservation" {
		fileName = fmt.Sprintf("Comprobante_Reservacion_%d.pdf", data.ID)
	}
	return c.sendReceipt(ctx, phone, rentMessage(data), pdfPath, fileName)
}

func (c *Client) sendReceipt(ctx context.Context, phone, message, pdfPath, fileName string) error {
	if !c.IsConnected() {
		return fmt.Errorf("WhatsApp no está conectado; escanea el código QR en /whatsapp-qr")
	}

	jid := types.NewJID(FormatPhoneNumber(phone), types.DefaultUserServer)

	if pdfPath != "" {
		if data, err := os.ReadFile(pdfPath); err == nil {
			return c.sendDocument(ctx, jid, data, fileName, message)
		}
		log.Warnf("[WhatsApp] PDF no encontrado (%s), enviando solo texto a %s", pdfPath, phone)
	}

	_, err := c.wa.SendMessage(ctx, jid, &waE2E.Message{Conversation: proto.String(message)})
	if err != nil {
		return fmt.Errorf("error enviando mensaje a %s: %w", phone, err)
	}
	log.Infof("[WhatsApp] Comprobante (solo texto) enviado a %s", phone)
	return nil
}

func (c *Client) sendDocument(ctx context.Context, jid types.JID, data []byte, fileName, caption string) error {
	up, err := c.wa.Upload(ctx, data, whatsmeow.MediaDocument)
	if err != nil {
		return fmt.Errorf("error subiendo el PDF: %w", err)
	}
	msg := &waE2E.Message{
		DocumentMessage: &waE2E.DocumentMessage{
			Title:         proto.String(fileName),
			FileName:      proto.String(fileName),
			Caption:       proto.String(caption),
			Mimetype:      proto.String("application/pdf"),
			URL:           proto.String(up.URL),
			DirectPath:    proto.String(up.DirectPath),
			MediaKey:      up.MediaKey,
			FileEncSHA256: up.FileEncSHA256,
			FileSHA256:    up.FileSHA256,
			FileLength:    proto.Uint64(up.FileLength),
		},
	}
	if _, err := c.wa.SendMessage(ctx, jid, msg); err != nil {
		return fmt.Errorf("error enviando el documento: %w", err)
	}
	log.Infof("[WhatsApp] Comprobante PDF enviado a %s", jid.User)
	return nil
}
