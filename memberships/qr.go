package memberships

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	qrcode "github.com/skip2/go-qrcode"
)

// buildQRPayload arma el contenido del QR. Deliberadamente contiene
// solo el id de la activación: un payload mínimo produce un QR menos
// denso y más fácil de escanear.
func buildQRPayload(activeID int) string {
	return fmt.Sprintf(`{"id_activa":%d}`, activeID)
}

// generateQRFile escribe el PNG del QR bajo dir. Devuelve la ruta
// relativa servible (/uploads/qrs/...) y la ruta en disco. Si la
// generación falla, reintenta con el payload mínimo antes de rendirse.
func generateQRFile(dir, payload string, activeID int, holderName string) (string, string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("error creando el directorio de QRs: %w", err)
	}

	cleanName := sanitizeName(holderName)
	fileName := fmt.Sprintf("qr_%d_%s.png", activeID, cleanName)
	fullPath := filepath.Join(dir, fileName)

	if err := qrcode.WriteFile(payload, qrcode.High, 320, fullPath); err != nil {
		log.Warnf("[Memberships] error generando QR (%v), reintentando con payload mínimo", err)
		minimal := buildQRPayload(activeID)
		if err := qrcode.WriteFile(minimal, qrcode.High, 320, fullPath); err != nil {
			return "", "", fmt.Errorf("error generando el archivo QR: %w", err)
		}
	}
	return "/uploads/qrs/" + fileName, fullPath, nil
}

func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	s := b.String()
	if len(s) > 20 {
		s = s[:20]
	}
	return s
}
