package notify

import (
	"context"
	"fmt"
	"html/template"
	"net"
	"strconv"
	texttemplate "text/template"
	"time"

	"storefront-service/pkg/config"

	"github.com/wneessen/go-mail"
)

const defaultMailTimeout = 10 * time.Second

// Sender delivers composed messages. *mail.Client satisfies it.
type Sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// EmailNotifier sends order confirmations to customers and low stock alerts
// to the admin mailbox over SMTP
type EmailNotifier struct {
	cfg    *config.MailConfig
	sender Sender
}

func NewEmailNotifier(cfg *config.MailConfig) *EmailNotifier {
	return &EmailNotifier{cfg: cfg}
}

// WithSender replaces the SMTP client
func (n *EmailNotifier) WithSender(sender Sender) *EmailNotifier {
	n.sender = sender
	return n
}

var templateFuncs = template.FuncMap{
	"money": func(v float64) string { return fmt.Sprintf("₹%.2f", v) },
	"qty":   formatQuantity,
	"year":  func() int { return time.Now().Year() },
}

var lowStockHTML = template.Must(template.New("low_stock").Funcs(templateFuncs).Parse(`
<div style="font-family: Arial, sans-serif; padding: 20px; border: 1px solid #eee; border-radius: 8px;">
  <h2 style="color: #e11d48;">Low Stock Warning</h2>
  <p>The product <strong>{{.ProductName}}</strong> has reached a low stock level:</p>
  <table style="width: 100%; border-collapse: collapse; margin-top: 15px;">
    <tr><th style="padding: 10px; border: 1px solid #ddd; text-align: left;">Product Name</th><td style="padding: 10px; border: 1px solid #ddd;">{{.ProductName}}</td></tr>
    <tr><th style="padding: 10px; border: 1px solid #ddd; text-align: left;">Current Stock</th><td style="padding: 10px; border: 1px solid #ddd; color: #e11d48; font-weight: bold;">{{qty .Available}} {{if .Unit}}{{.Unit}}{{else}}units{{end}}</td></tr>
    <tr><th style="padding: 10px; border: 1px solid #ddd; text-align: left;">Size/Variant</th><td style="padding: 10px; border: 1px solid #ddd;">{{if .Size}}{{.Size}}{{else}}N/A{{end}}</td></tr>
  </table>
  <p style="margin-top: 20px;">Please login to the admin panel to restock this item.</p>
</div>
`))

var orderHTML = template.Must(template.New("order").Funcs(templateFuncs).Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1 style="color: #22c55e;">Order Confirmed!</h1>
  <p>Hi {{.CustomerName}},</p>
  <p>Thank you for your order. We've received it and will start processing it soon.</p>
  <p><strong>Order ID:</strong> {{.OrderID}}<br><strong>Order Date:</strong> {{.PlacedAt.Format "2 January 2006 at 3:04 PM"}}</p>
  <table style="width: 100%; border-collapse: collapse;">
    <tr><th style="text-align: left;">Item</th><th>Qty</th><th style="text-align: right;">Price</th></tr>
    {{range .Items}}<tr>
      <td style="padding: 10px; border-bottom: 1px solid #eee;"><strong>{{.Name}}</strong>{{if .Size}}<br><span style="color: #22c55e; font-size: 0.9em;">{{.Size}}</span>{{end}}</td>
      <td style="padding: 10px; border-bottom: 1px solid #eee; text-align: center;">{{qty .Quantity}}</td>
      <td style="padding: 10px; border-bottom: 1px solid #eee; text-align: right;">{{money .Subtotal}}</td>
    </tr>{{end}}
  </table>
  <p style="text-align: right;"><strong>Total Amount: {{money .TotalAmount}}</strong></p>
  {{with .Address}}<h3>Delivery Address</h3>
  <p>{{.FullName}}<br>{{.Address}}<br>{{.City}}, {{.State}} - {{.Pincode}}<br>Phone: {{.Phone}}<br>Email: {{.Email}}</p>{{end}}
  <p style="color: #888; font-size: 0.8em;">This is an automated email. Please do not reply to this message.<br>&copy; {{year}} FreshFlow. All rights reserved.</p>
</div>
`))

var orderText = texttemplate.Must(texttemplate.New("order_text").Funcs(texttemplate.FuncMap(templateFuncs)).Parse(`Hi {{.CustomerName}},

Thank you for your order! We've received it and will start processing it soon.

ORDER DETAILS
-------------
Order ID: {{.OrderID}}
Order Date: {{.PlacedAt.Format "2 January 2006 at 3:04 PM"}}
Total Amount: {{money .TotalAmount}}

ORDER ITEMS
-----------
{{range .Items}}{{.Name}} x {{qty .Quantity}} - {{money .Subtotal}}
{{end}}{{with .Address}}
DELIVERY ADDRESS
----------------
{{.FullName}}
{{.Address}}
{{.City}}, {{.State}} - {{.Pincode}}
Phone: {{.Phone}}
Email: {{.Email}}
{{end}}
Best regards,
FreshFlow Team
`))

func (n *EmailNotifier) LowStock(ctx context.Context, alert LowStockAlert) error {
	if n.cfg.AdminEmail == "" || !n.cfg.Enabled() {
		return nil
	}

	msg, err := n.newMessage(n.cfg.FromName+" Inventory", n.cfg.AdminEmail,
		fmt.Sprintf("⚠️ LOW STOCK ALERT: %s", alert.ProductName))
	if err != nil {
		return err
	}
	if err := msg.SetBodyHTMLTemplate(lowStockHTML, alert); err != nil {
		return fmt.Errorf("render low stock email: %w", err)
	}
	return n.deliver(ctx, msg)
}

func (n *EmailNotifier) OrderConfirmation(ctx context.Context, order OrderConfirmation) error {
	if order.CustomerEmail == "" || !n.cfg.Enabled() {
		return nil
	}

	msg, err := n.newMessage(n.cfg.FromName, order.CustomerEmail,
		fmt.Sprintf("Order Confirmation - Your Order #%s has been placed!", order.OrderID))
	if err != nil {
		return err
	}
	if err := msg.SetBodyTextTemplate(orderText, order); err != nil {
		return fmt.Errorf("render order email: %w", err)
	}
	if err := msg.AddAlternativeHTMLTemplate(orderHTML, order); err != nil {
		return fmt.Errorf("render order email: %w", err)
	}
	return n.deliver(ctx, msg)
}

func (n *EmailNotifier) newMessage(fromName, to, subject string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.FromFormat(fromName, n.cfg.User); err != nil {
		return nil, fmt.Errorf("invalid sender %s: %w", n.cfg.User, err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient %s: %w", to, err)
	}
	msg.Subject(subject)
	msg.SetDate()
	return msg, nil
}

func (n *EmailNotifier) deliver(ctx context.Context, msg *mail.Msg) error {
	sender := n.sender
	if sender == nil {
		client, err := n.newClient(ctx)
		if err != nil {
			return err
		}
		sender = client
	}

	if err := sender.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func (n *EmailNotifier) newClient(ctx context.Context) (*mail.Client, error) {
	port, err := strconv.Atoi(n.cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("invalid EMAIL_PORT %q: %w", n.cfg.Port, err)
	}

	client, err := mail.NewClient(n.cfg.Host,
		mail.WithPort(port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(n.cfg.User),
		mail.WithPassword(n.cfg.Password),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(n.timeout()),
		mail.WithDialContextFunc(n.dialer(ctx)),
	)
	if err != nil {
		return nil, fmt.Errorf("create mail client: %w", err)
	}
	return client, nil
}

// dialer bounds the whole SMTP conversation, greeting included, by the
// mail timeout or the caller's deadline, whichever comes first
func (n *EmailNotifier) dialer(ctx context.Context) mail.DialContextFunc {
	return func(dialCtx context.Context, network, addr string) (net.Conn, error) {
		var d net.Dialer
		conn, err := d.DialContext(dialCtx, network, addr)
		if err != nil {
			return nil, err
		}

		deadline := time.Now().Add(n.timeout())
		if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
			deadline = dl
		}
		if err := conn.SetDeadline(deadline); err != nil {
			conn.Close()
			return nil, err
		}
		return conn, nil
	}
}

func (n *EmailNotifier) timeout() time.Duration {
	if n.cfg.Timeout > 0 {
		return n.cfg.Timeout
	}
	return defaultMailTimeout
}
