// internal/pkg/email/service.go
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
)

// Service handles all email operations
type Service struct {
	config    config.EmailConfig
	siteURL   string
	templates map[Type]*template.Template
	client    *http.Client
	logger    *logrus.Logger

	resendURL   string
	sendgridURL string
}

// NewService creates a new email service
func NewService(cfg config.EmailConfig, siteURL string, logger *logrus.Logger) *Service {
	return &Service{
		config:  cfg,
		siteURL: siteURL,
		templates: map[Type]*template.Template{
			TypeOrderConfirmation: template.Must(template.New("order_confirmation").Parse(orderConfirmationTemplate)),
			TypeSellerNewOrder:    template.Must(template.New("seller_new_order").Parse(sellerNewOrderTemplate)),
		},
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:      logger,
		resendURL:   "https://api.resend.com/emails",
		sendgridURL: "https://api.sendgrid.com/v3/mail/send",
	}
}

// SendEmail sends an email using the configured provider
func (s *Service) SendEmail(ctx context.Context, email *Email) error {
	if len(email.To) == 0 {
		return fmt.Errorf("email has no recipients")
	}

	switch s.config.Provider {
	case "smtp":
		return s.sendSMTPEmail(ctx, email)
	case "resend":
		return s.sendResendEmail(ctx, email)
	case "sendgrid":
		return s.sendSendGridEmail(ctx, email)
	case "log", "":
		s.logger.WithFields(logrus.Fields{
			"to":      email.To,
			"subject": email.Subject,
			"type":    email.Type,
		}).Info("Email not sent, log provider")
		return nil
	default:
		return fmt.Errorf("unsupported email provider: %s", s.config.Provider)
	}
}

// SendOrderConfirmationEmail sends the buyer's order confirmation
func (s *Service) SendOrderConfirmationEmail(ctx context.Context, data OrderConfirmationData) error {
	if data.BuyerEmail == "" {
		return nil
	}
	data.TemplateData = s.baseTemplateData(data.StoreName)

	htmlContent, err := s.renderTemplate(TypeOrderConfirmation, data)
	if err != nil {
		return fmt.Errorf("failed to render order confirmation template: %w", err)
	}

	return s.SendEmail(ctx, &Email{
		To:          []string{data.BuyerEmail},
		Subject:     fmt.Sprintf("Order Confirmation - %s", data.OrderNumber),
		HTMLContent: htmlContent,
		Type:        TypeOrderConfirmation,
	})
}

// SendSellerNewOrderEmail tells the store owner about a new order
func (s *Service) SendSellerNewOrderEmail(ctx context.Context, sellerEmail string, data OrderConfirmationData) error {
	if sellerEmail == "" {
		return nil
	}
	data.TemplateData = s.baseTemplateData(data.StoreName)

	htmlContent, err := s.renderTemplate(TypeSellerNewOrder, data)
	if err != nil {
		return fmt.Errorf("failed to render seller order template: %w", err)
	}

	return s.SendEmail(ctx, &Email{
		To:          []string{sellerEmail},
		Subject:     fmt.Sprintf("New order %s on %s", data.OrderNumber, data.StoreName),
		HTMLContent: htmlContent,
		Type:        TypeSellerNewOrder,
	})
}

func (s *Service) baseTemplateData(storeName string) TemplateData {
	siteName := storeName
	if siteName == "" {
		siteName = s.config.FromName
	}
	return TemplateData{
		SiteName: siteName,
		SiteURL:  s.siteURL,
		Year:     time.Now().Year(),
	}
}

func (s *Service) renderTemplate(name Type, data interface{}) (string, error) {
	tmpl, exists := s.templates[name]
	if !exists {
		return "", fmt.Errorf("template %s not found", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return buf.String(), nil
}

func (s *Service) fromAddress() string {
	if s.config.FromName != "" {
		return fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromEmail)
	}
	return s.config.FromEmail
}

const orderConfirmationTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>{{.SiteName}}</title></head>
<body style="font-family: Arial, sans-serif; margin: 0; padding: 20px; background-color: #f4f4f4;">
  <div style="max-width: 600px; margin: 0 auto; background-color: white; padding: 20px; border-radius: 8px;">
    <h1 style="color: #333;">{{.SiteName}}</h1>
    <p>Hello {{.BuyerName}},</p>
    <p>Thank you for your order <strong>{{.OrderNumber}}</strong> placed on {{.OrderDate}}.</p>
    <table style="width: 100%; border-collapse: collapse;">
      {{range .Items}}<tr><td>{{.Name}} × {{.Quantity}}</td><td style="text-align: right;">{{.Total}}</td></tr>{{end}}
      <tr><td><strong>Total</strong></td><td style="text-align: right;"><strong>{{.Currency}} {{.OrderTotal}}</strong></td></tr>
    </table>
    <p>Payment: {{.PaymentMethod}}</p>
    <p>Shipping to: {{.Address}}</p>
    {{if .OrderURL}}<p><a href="{{.OrderURL}}">View your order</a></p>{{end}}
    <hr>
    <p style="font-size: 12px; color: #666;">© {{.Year}} {{.SiteName}}</p>
  </div>
</body>
</html>`

const sellerNewOrderTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>{{.SiteName}}</title></head>
<body style="font-family: Arial, sans-serif; padding: 20px;">
  <h2>New order {{.OrderNumber}}</h2>
  <p>{{.BuyerName}} ({{.BuyerPhone}}) ordered {{len .Items}} item(s) for {{.Currency}} {{.OrderTotal}}, paying by {{.PaymentMethod}}.</p>
  <ul>{{range .Items}}<li>{{.Name}} × {{.Quantity}}</li>{{end}}</ul>
  <p>Ship to: {{.Address}}</p>
</body>
</html>`
