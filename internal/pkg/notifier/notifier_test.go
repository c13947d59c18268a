package notifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestSMTPNotifier_BuildMessage testa os headers e o corpo do e-mail de alerta.
func TestSMTPNotifier_BuildMessage(t *testing.T) {
	n := NewSMTPNotifier("smtp.local", "25", "alertas@gorent.local", "estoque@gorent.local")

	msg := string(n.buildMessage(Notification{
		Kind:        "low_stock",
		EquipmentID: "eq-1",
		Name:        "Barraca de Camping",
		Quantity:    3,
		Threshold:   5,
	}))

	assert.Contains(t, msg, "Subject: [GoRent] Alerta de estoque: low_stock - Barraca de Camping\r\n")
	assert.Contains(t, msg, "From: alertas@gorent.local\r\n")
	assert.Contains(t, msg, "To: estoque@gorent.local\r\n")
	assert.Contains(t, msg, "Quantidade atual: 3\r\n")
	assert.Contains(t, msg, "Threshold: 5\r\n")
}
