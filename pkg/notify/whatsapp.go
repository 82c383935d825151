package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storefront-service/pkg/config"
)

// WhatsAppNotifier posts low stock alerts for the admin phone to a
// messaging webhook
type WhatsAppNotifier struct {
	WebhookURL string
	Token      string
	AdminPhone string
	HTTPClient *http.Client
}

type whatsAppMessage struct {
	Token string `json:"token,omitempty"`
	To    string `json:"to"`
	Body  string `json:"body"`
}

func NewWhatsAppNotifier(cfg *config.WhatsAppConfig) *WhatsAppNotifier {
	return &WhatsAppNotifier{
		WebhookURL: cfg.WebhookURL,
		Token:      cfg.Token,
		AdminPhone: cfg.AdminPhone,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// LowStockMessage renders the alert text sent to the admin
func LowStockMessage(alert LowStockAlert) string {
	size := alert.Size
	if size == "" {
		size = "N/A"
	}
	unit := alert.Unit
	if unit == "" {
		unit = "units"
	}

	var b strings.Builder
	b.WriteString("*⚠️ LOW STOCK ALERT*\n\n")
	fmt.Fprintf(&b, "*Product:* %s\n", alert.ProductName)
	fmt.Fprintf(&b, "*Size:* %s\n", size)
	fmt.Fprintf(&b, "*Current Stock:* %s %s\n\n", formatQuantity(alert.Available), unit)
	b.WriteString("Please restock as soon as possible.")
	return b.String()
}

func (n *WhatsAppNotifier) LowStock(ctx context.Context, alert LowStockAlert) error {
	if n.WebhookURL == "" || n.AdminPhone == "" {
		return nil
	}

	payload, err := json.Marshal(whatsAppMessage{
		Token: n.Token,
		To:    n.AdminPhone,
		Body:  LowStockMessage(alert),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if n.Token != "" {
		req.Header.Set("Authorization", "Bearer "+n.Token)
	}

	resp, err := n.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("whatsapp webhook: %d %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// OrderConfirmation is not delivered over WhatsApp
func (n *WhatsAppNotifier) OrderConfirmation(context.Context, OrderConfirmation) error {
	return nil
}

func formatQuantity(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.3f", v), "0"), ".")
}
