package usecase

import "testing"

func TestValidateFullName(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"Иван Иванов", true},
		{"Иван123", false},
		{"Иван", false},
		{"Anna-Maria Smith", true},
		{"Пётр  Петров Сидорович", true},
		{"Иван Иванов2", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidateFullName(tt.in); got != tt.want {
			t.Errorf("ValidateFullName(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestValidatePhone(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"+4917612345678", true},
		{"4917612345678", false},
		{"+12345678", false},
		{"+1234567890", true},
		{"+1234567890123456", false},
		{"+7 999 123 45 67", false},
	}
	for _, tt := range tests {
		if got := ValidatePhone(tt.in); got != tt.want {
			t.Errorf("ValidatePhone(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := map[string]string{
		"+7 (999) 123-45-67": "+79991234567",
		"8 999 123 45 67":    "+89991234567",
		"49+17612345678":     "+4917612345678",
		"4917612345678":      "+4917612345678",
		"abc":                "",
	}
	for in, want := range tests {
		if got := NormalizePhone(in); got != want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"100", "100", true},
		{"123,45", "123.45", true},
		{" 99.9 ", "99.9", true},
		{"0", "", false},
		{"-5", "", false},
		{"abc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParsePrice(tt.in)
		if ok != tt.ok {
			t.Errorf("ParsePrice(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && got.String() != tt.want {
			t.Errorf("ParsePrice(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestValidateLink(t *testing.T) {
	tests := map[string]bool{
		"https://dw4.co/t/A/abc": true,
		"http://example.com":     true,
		"HTTPS://EXAMPLE.COM":    true,
		"https://":               false,
		"ftp://example.com":      false,
		"dw4.co/t/A/abc":         false,
	}
	for in, want := range tests {
		if got := ValidateLink(in); got != want {
			t.Errorf("ValidateLink(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNormalizeFreeText(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"XL", "xl", true},
		{"  Нет ", "нет", true},
		{"none", "нет", true},
		{"Чёрный", "чёрный", true},
		{"   ", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeFreeText(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("NormalizeFreeText(%q) = %q,%v want %q,%v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
