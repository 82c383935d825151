package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"storefront-service/pkg/config"

	"github.com/wneessen/go-mail"
)

type recordingNotifier struct {
	lowStock int
	orders   int
	err      error
}

func (r *recordingNotifier) LowStock(context.Context, LowStockAlert) error {
	r.lowStock++
	return r.err
}

func (r *recordingNotifier) OrderConfirmation(context.Context, OrderConfirmation) error {
	r.orders++
	return r.err
}

func TestMultiDeliversToAllChannels(t *testing.T) {
	boom := errors.New("boom")
	a := &recordingNotifier{err: boom}
	b := &recordingNotifier{}

	err := Multi{a, b}.LowStock(context.Background(), LowStockAlert{ProductName: "Rice"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if a.lowStock != 1 || b.lowStock != 1 {
		t.Fatalf("both channels should be called: %d %d", a.lowStock, b.lowStock)
	}
	if err := (Multi{b}).OrderConfirmation(context.Background(), OrderConfirmation{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLowStockMessage(t *testing.T) {
	msg := LowStockMessage(LowStockAlert{ProductName: "Groundnut Oil", Unit: "L", Available: 2.5})
	for _, want := range []string{"LOW STOCK ALERT", "*Product:* Groundnut Oil", "*Size:* N/A", "*Current Stock:* 2.5 L"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestWhatsAppPostsToWebhook(t *testing.T) {
	var got whatsAppMessage
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewWhatsAppNotifier(&config.WhatsAppConfig{WebhookURL: srv.URL, Token: "tok", AdminPhone: "919999999999"})
	if err := n.LowStock(context.Background(), LowStockAlert{ProductName: "Rice", Available: 4, Unit: "kg"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got.To != "919999999999" || !strings.Contains(got.Body, "Rice") || got.Token != "tok" {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if auth != "Bearer tok" {
		t.Fatalf("unexpected auth header %q", auth)
	}
}

func TestWhatsAppReportsWebhookFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	n := NewWhatsAppNotifier(&config.WhatsAppConfig{WebhookURL: srv.URL, AdminPhone: "1"})
	err := n.LowStock(context.Background(), LowStockAlert{ProductName: "Rice"})
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected 429 error, got %v", err)
	}
}

func TestWhatsAppDisabledWithoutWebhook(t *testing.T) {
	n := NewWhatsAppNotifier(&config.WhatsAppConfig{})
	if err := n.LowStock(context.Background(), LowStockAlert{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

type captureSender struct {
	msgs []*mail.Msg
}

func (c *captureSender) DialAndSendWithContext(_ context.Context, msgs ...*mail.Msg) error {
	c.msgs = append(c.msgs, msgs...)
	return nil
}

func partContent(t *testing.T, msg *mail.Msg, contentType mail.ContentType) string {
	t.Helper()
	for _, part := range msg.GetParts() {
		if part.GetContentType() != contentType {
			continue
		}
		body, err := part.GetContent()
		if err != nil {
			t.Fatalf("read %s part: %v", contentType, err)
		}
		return string(body)
	}
	t.Fatalf("message has no %s part", contentType)
	return ""
}

func TestEmailOrderConfirmation(t *testing.T) {
	cfg := &config.MailConfig{Host: "smtp.test", Port: "587", User: "shop@test", Password: "pw", FromName: "FreshFlow"}
	sender := &captureSender{}
	n := NewEmailNotifier(cfg).WithSender(sender)

	err := n.OrderConfirmation(context.Background(), OrderConfirmation{
		OrderID:       "ord-1",
		CustomerName:  "Asha",
		CustomerEmail: "asha@test",
		Items:         []OrderItem{{Name: "Rice", Size: "500gm", Quantity: 2, Price: 40}},
		TotalAmount:   80,
		Address:       &Address{FullName: "Asha", City: "Chennai"},
		PlacedAt:      time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(sender.msgs) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sender.msgs))
	}
	msg := sender.msgs[0]

	rcpts, err := msg.GetRecipients()
	if err != nil || len(rcpts) != 1 || rcpts[0] != "asha@test" {
		t.Fatalf("unexpected recipients %v (%v)", rcpts, err)
	}
	if subject := msg.GetGenHeader(mail.HeaderSubject); len(subject) != 1 || !strings.Contains(subject[0], "Your Order #ord-1") {
		t.Fatalf("unexpected subject %v", subject)
	}
	text := partContent(t, msg, mail.TypeTextPlain)
	for _, want := range []string{"Rice x 2 - ₹80.00", "Chennai"} {
		if !strings.Contains(text, want) {
			t.Fatalf("text body missing %q", want)
		}
	}
	if html := partContent(t, msg, mail.TypeTextHTML); !strings.Contains(html, "Order Confirmed!") {
		t.Fatalf("html body missing heading")
	}
}

func TestEmailLowStockGoesToAdmin(t *testing.T) {
	cfg := &config.MailConfig{Host: "smtp.test", Port: "587", User: "shop@test", FromName: "FreshFlow", AdminEmail: "admin@test"}
	sender := &captureSender{}
	n := NewEmailNotifier(cfg).WithSender(sender)

	if err := n.LowStock(context.Background(), LowStockAlert{ProductName: "Rice", Available: 3, Unit: "kg"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(sender.msgs) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sender.msgs))
	}
	rcpts, _ := sender.msgs[0].GetRecipients()
	if len(rcpts) != 1 || rcpts[0] != "admin@test" {
		t.Fatalf("unexpected recipients %v", rcpts)
	}
	if html := partContent(t, sender.msgs[0], mail.TypeTextHTML); !strings.Contains(html, "3 kg") {
		t.Fatalf("alert body missing stock level")
	}
}

func TestEmailSkippedWhenNotConfigured(t *testing.T) {
	sender := &captureSender{}
	n := NewEmailNotifier(&config.MailConfig{AdminEmail: "admin@test"}).WithSender(sender)
	if err := n.LowStock(context.Background(), LowStockAlert{ProductName: "Rice"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.msgs) != 0 {
		t.Fatalf("sender should not be called without SMTP settings")
	}
}

func TestEmailGivesUpOnSilentServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	// accept connections and never send the SMTP greeting
	var conns []net.Conn
	var mu sync.Mutex
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, c)
			mu.Unlock()
		}
	}()
	defer func() {
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			c.Close()
		}
	}()

	host, port, _ := net.SplitHostPort(ln.Addr().String())
	n := NewEmailNotifier(&config.MailConfig{
		Host:       host,
		Port:       port,
		User:       "shop@test",
		Password:   "pw",
		AdminEmail: "admin@test",
		Timeout:    5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- n.LowStock(ctx, LowStockAlert{ProductName: "Rice", Available: 2, Unit: "kg"}) }()

	select {
	case err := <-done:
		if err == nil {
			t.Fatalf("expected an error from a server that never greets")
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("send did not honour the request deadline")
	}
}
