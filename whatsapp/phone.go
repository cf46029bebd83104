package whatsapp

import "strings"

// FormatPhoneNumber normaliza un teléfono al identificador de usuario
// que espera WhatsApp. Los números locales de México (10 dígitos)
// requieren el prefijo 521 para mensajería móvil.
func FormatPhoneNumber(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	clean := b.String()

	switch {
	case len(clean) == 10:
		return "521" + clean
	case len(clean) == 12 && strings.HasPrefix(clean, "52"):
		// 52 + 10 dígitos: falta el 1 de móvil
		return "521" + clean[2:]
	default:
		return clean
	}
}
