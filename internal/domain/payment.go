package domain

import "strings"

// PaymentMethod is a label; it drives post-order instructions, not settlement.
type PaymentMethod struct {
	Code         string `json:"code"`
	Title        string `json:"title"`
	Instructions string `json:"instructions"`
	IsActive     bool   `json:"is_active"`
}

func NormalizePaymentCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
