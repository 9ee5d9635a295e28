package usecase

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/yourusername/poizon-order-bot/internal/domain/constants"
)

var (
	nameTokenRegex = regexp.MustCompile(`^[A-Za-zА-Яа-яЁё\-]+$`)
	phoneRegex     = regexp.MustCompile(`^\+[0-9]{10,15}$`)
)

// ValidateFullName kamida 2 ta so'z, faqat harflar va defis
func ValidateFullName(name string) bool {
	tokens := strings.Fields(name)
	if len(tokens) < 2 {
		return false
	}
	for _, tok := range tokens {
		if !nameTokenRegex.MatchString(tok) {
			return false
		}
	}
	return true
}

// NormalizePhone keeps digits and a single leading plus, adding the plus if missing.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	phone := b.String()
	if phone == "" {
		return ""
	}
	if !strings.HasPrefix(phone, "+") {
		phone = "+" + phone
	}
	return phone
}

// ValidatePhone expects an already normalized number: + and 10-15 digits.
func ValidatePhone(phone string) bool {
	return phoneRegex.MatchString(phone)
}

// ParsePrice musbat son (vergul ham qabul qilinadi)
func ParsePrice(raw string) (decimal.Decimal, bool) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	raw = strings.ReplaceAll(raw, ",", ".")
	if raw == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}

// ValidateLink http:// yoki https:// bilan boshlanishi kerak
func ValidateLink(raw string) bool {
	link := strings.ToLower(strings.TrimSpace(raw))
	for _, scheme := range []string{"http://", "https://"} {
		if strings.HasPrefix(link, scheme) && len(link) > len(scheme) {
			return !strings.ContainsAny(link, " \t\n")
		}
	}
	return false
}

// NormalizeFreeText for size/color: case-folded, "нет"/"none" become the none marker.
func NormalizeFreeText(raw string) (string, bool) {
	text := strings.ToLower(strings.TrimSpace(raw))
	if text == "" {
		return "", false
	}
	switch text {
	case "нет", "none", "-":
		return constants.NoneMarker, true
	}
	return text, true
}
