package notifier

import (
	"context"
	"fmt"
	"net/smtp"

	"gorent/internal/pkg/logger"
)

// Notification é o aviso de estoque emitido pelo núcleo: o tipo do alerta,
// o equipamento afetado e os números que o justificam.
type Notification struct {
	Kind        string // e.g., "out_of_stock", "low_stock", "auto_reorder"
	EquipmentID string
	Name        string
	Quantity    int
	Threshold   int
}

// Notifier é a porta ÚNICA de notificação do núcleo. Contrato fire-and-forget:
// o chamador invoca o Notifier somente DEPOIS do commit da unidade atômica e
// engole falhas (loga, nunca propaga como falha de mutação).
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier é a implementação padrão: registra o alerta no log estruturado.
// Usada quando não há SMTP configurado (e em testes).
type LogNotifier struct {
	logger logger.Logger
}

// NewLogNotifier cria um Notifier baseado em log.
func NewLogNotifier(log logger.Logger) *LogNotifier {
	return &LogNotifier{logger: log}
}

// Notify registra o alerta no log.
func (n *LogNotifier) Notify(_ context.Context, notification Notification) error {
	n.logger.Warn("Alerta de estoque.", map[string]interface{}{
		"kind":         notification.Kind,
		"equipment_id": notification.EquipmentID,
		"name":         notification.Name,
		"quantity":     notification.Quantity,
		"threshold":    notification.Threshold,
	})
	return nil
}

// SMTPNotifier envia o alerta por e-mail ao administrador.
type SMTPNotifier struct {
	host string
	port string
	from string
	to   string
}

// NewSMTPNotifier cria um Notifier que envia por SMTP.
func NewSMTPNotifier(host, port, from, to string) *SMTPNotifier {
	return &SMTPNotifier{host: host, port: port, from: from, to: to}
}

// buildMessage monta o e-mail de alerta completo (headers + corpo).
func (n *SMTPNotifier) buildMessage(notification Notification) []byte {
	subject := fmt.Sprintf("[GoRent] Alerta de estoque: %s - %s", notification.Kind, notification.Name)
	body := fmt.Sprintf(
		"Equipamento: %s (%s)\r\nQuantidade atual: %d\r\nThreshold: %d\r\nTipo do alerta: %s\r\n",
		notification.Name, notification.EquipmentID,
		notification.Quantity, notification.Threshold, notification.Kind,
	)
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", n.from, n.to, subject, body)
	return []byte(msg)
}

// Notify monta e envia o e-mail de alerta.
func (n *SMTPNotifier) Notify(_ context.Context, notification Notification) error {
	addr := fmt.Sprintf("%s:%s", n.host, n.port)
	return smtp.SendMail(addr, nil, n.from, []string{n.to}, n.buildMessage(notification))
}
