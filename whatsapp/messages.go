package whatsapp

import "fmt"

// MembershipReceipt son los datos que se formatean en el mensaje de
// comprobante de membresía.
type MembershipReceipt struct {
	ID            int      `json:"id"`
	Holder        string   `json:"holder"`
	PlanName      string   `json:"plan_name"`
	StartDate     string   `json:"start_date"`
	EndDate       string   `json:"end_date"`
	Amount        float64  `json:"amount"`
	PaymentMethod string   `json:"payment_method"`
	Members       []string `json:"members,omitempty"`
}

// RentReceipt son los datos del comprobante de renta o reservación.
type RentReceipt struct {
	ID         int     `json:"id"`
	ClientName string  `json:"client_name"`
	RoomNumber string  `json:"room_number"`
	CheckIn    string  `json:"check_in"`
	CheckOut   string  `json:"check_out"`
	Total      float64 `json:"total"`
	Type       string  `json:"type,omitempty"` // "reservation" o vacío (renta)
}

func membershipMessage(data MembershipReceipt) string {
	msg := fmt.Sprintf(`🎫 *COMPROBANTE DE MEMBRESÍA*
━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━

✅ *Membresía Registrada*
📋 *Folio:* #%d
👤 *Titular:* %s
🏷️ *Tipo:* %s

📅 *Inicio:* %s
📅 *Vencimiento:* %s
💰 *Total:* $%.2f MXN
💳 *Método de pago:* %s
`, data.ID, data.Holder, data.PlanName, data.StartDate, data.EndDate, data.Amount, data.PaymentMethod)

	if len(data.Members) > 0 {
		msg += "\n👥 *Integrantes:*\n"
		for _, m := range data.Members {
			msg += "   • " + m + "\n"
		}
	}

	msg += `
━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━
📱 *Comprobante Digital con QR*
🔍 Escanea el código QR para verificar

🏨 *Hotel Residency Club*
📞 Cualquier duda, contáctanos

¡Gracias por elegirnos! 🌟`
	return msg
}

func rentMessage(data RentReceipt) string {
	titulo := "COMPROBANTE DE RENTA"
	estado := "✅ *Renta Registrada*"
	if data.Type == "reservation" {
		titulo = "COMPROBANTE DE RESERVACIÓN"
		estado = "✅ *Reservación Confirmada*"
	}
	return fmt.Sprintf(`🏨 *%s*
━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━

%s
📋 *Número:* #%d
👤 *Cliente:* %s
🏠 *Habitación:* #%s

📅 *Check-in:* %s
📅 *Check-out:* %s
💰 *Total:* $%.2f MXN

━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━
📱 *Comprobante Digital con QR*
🔍 Escanea el código QR para verificar

🏨 *Hotel Residency Club*
📞 Cualquier duda, contáctanos

¡Gracias por elegirnos! 🌟`, titulo, estado, data.ID, data.ClientName, data.RoomNumber, data.CheckIn, data.CheckOut, data.Total)
}
