package memberships

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"

	log "github.com/sirupsen/logrus"
)

// Umbral de días restantes a partir del cual la membresía se reporta
// como próxima a vencer.
const expiringThresholdDays = 5

type qrPayload struct {
	ActiveID int `json:"id_activa"`
}

// VerifyMembership clasifica el estado de una membresía a partir del
// payload escaneado de un QR. Un payload malformado o un id
// inexistente producen un resultado de error, nunca un pánico. Esta
// ruta es de solo lectura: el registro de entradas es un flujo aparte.
func (s *Service) VerifyMembership(encoded string) VerificationResult {
	if encoded == "" {
		return VerificationResult{Status: "error", Message: "No se proporcionaron datos para la verificación."}
	}

	decoded, err := url.QueryUnescape(encoded)
	if err != nil {
		decoded = encoded
	}

	var payload qrPayload
	if err := json.Unmarshal([]byte(decoded), &payload); err != nil || payload.ActiveID == 0 {
		return VerificationResult{Status: "error", Message: "El código QR no contiene un ID de membresía válido."}
	}

	membership, err := s.repo.GetActiveMembership(payload.ActiveID)
	if err != nil {
		log.Errorf("[Memberships] error al verificar la membresía #%d: %v", payload.ActiveID, err)
		return VerificationResult{Status: "error", Message: "Ocurrió un error al procesar la solicitud. El QR podría no ser válido."}
	}
	if membership == nil {
		return VerificationResult{Status: "error", Message: "No se encontró ninguna membresía con el ID proporcionado."}
	}

	now := s.now()
	endDate := membership.EndDate
	diffDays := int(math.Ceil(endDate.Sub(now).Hours() / 24))

	switch {
	case endDate.Before(now):
		return VerificationResult{
			Status:     "inactive",
			Message:    "La membresía está vencida.",
			Membership: membership,
		}
	case diffDays <= expiringThresholdDays:
		return VerificationResult{
			Status:        "expiring",
			Message:       fmt.Sprintf("La membresía expira en %d día(s).", diffDays),
			DaysRemaining: diffDays,
			Membership:    membership,
		}
	default:
		return VerificationResult{
			Status:        "active",
			Message:       "La membresía está activa.",
			DaysRemaining: diffDays,
			Membership:    membership,
		}
	}
}
