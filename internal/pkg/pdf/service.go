// internal/pkg/pdf/service.go
package pdf

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/domain/store"
)

var receiptTmpl = template.Must(template.New("receipt").Funcs(template.FuncMap{
	"money": product.FormatPrice,
}).Parse(receiptTemplate))

// Service handles PDF generation
type Service struct {
	now func() time.Time
}

// NewService creates a new PDF service
func NewService() *Service {
	return &Service{now: time.Now}
}

// ReceiptData represents the data passed to the receipt template
type ReceiptData struct {
	ReceiptNumber string
	IssuedOn      string
	Order         *order.Order
	StoreName     string
	StoreEmail    string
	StorePhone    string
}

// RenderReceiptHTML renders the receipt page for an order
func (s *Service) RenderReceiptHTML(o *order.Order, st *store.Store) ([]byte, error) {
	data := ReceiptData{
		ReceiptNumber: fmt.Sprintf("RCPT-%s", o.OrderNumber),
		IssuedOn:      s.now().Format("January 2, 2006"),
		Order:         o,
		StoreName:     st.Name,
		StoreEmail:    st.ContactEmail,
		StorePhone:    st.ContactPhone,
	}

	var buf bytes.Buffer
	if err := receiptTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.Bytes(), nil
}

// GenerateReceipt converts the receipt page to PDF. It needs the
// wkhtmltopdf binary on PATH or in WKHTMLTOPDF_PATH.
func (s *Service) GenerateReceipt(o *order.Order, st *store.Store) (*bytes.Buffer, error) {
	html, err := s.RenderReceiptHTML(o, st)
	if err != nil {
		return nil, fmt.Errorf("failed to generate HTML: %w", err)
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF generator: %w", err)
	}

	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.PageSize.Set(wkhtmltopdf.PageSizeA4)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader(html))
	page.FooterRight.Set("[page]")
	page.FooterFontSize.Set(9)
	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create PDF: %w", err)
	}
	return bytes.NewBuffer(pdfg.Bytes()), nil
}

const receiptTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Receipt {{.ReceiptNumber}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 0; padding: 20px; color: #333; }
        .header { border-bottom: 2px solid #eee; padding-bottom: 16px; margin-bottom: 24px; }
        .title { font-size: 26px; font-weight: bold; color: #2563eb; }
        .section-title { font-size: 15px; font-weight: bold; margin: 16px 0 8px; color: #374151; }
        .items { width: 100%; border-collapse: collapse; margin-bottom: 24px; }
        .items th, .items td { border: 1px solid #ddd; padding: 10px 8px; text-align: left; }
        .items th { background-color: #f8f9fa; }
        .num { text-align: right; width: 90px; }
        .total-row td { font-size: 17px; font-weight: bold; border-top: 2px solid #333; }
        .badge { display: inline-block; padding: 3px 8px; border-radius: 4px; font-size: 12px; font-weight: bold; text-transform: uppercase; }
        .paid { background-color: #dcfce7; color: #166534; }
        .pending { background-color: #fef3c7; color: #92400e; }
        .footer { margin-top: 40px; padding-top: 16px; border-top: 1px solid #eee; text-align: center; color: #666; font-size: 12px; }
    </style>
</head>
<body>
    <div class="header">
        <div class="title">{{.StoreName}}</div>
        <p><strong>Receipt #:</strong> {{.ReceiptNumber}}<br>
        <strong>Order #:</strong> {{.Order.OrderNumber}}<br>
        <strong>Issued:</strong> {{.IssuedOn}}</p>
        <p>Payment: {{if eq .Order.PaymentMethod "cod"}}Cash on Delivery{{else}}Online{{end}}
        <span class="badge {{if .Order.IsPaid}}paid{{else}}pending{{end}}">{{.Order.PaymentStatus}}</span></p>
    </div>

    <div class="section-title">Ship To</div>
    <p><strong>{{.Order.BuyerName}}</strong><br>
    {{.Order.Address}}<br>
    Phone: {{.Order.BuyerPhone}}{{if .Order.BuyerEmail}}<br>Email: {{.Order.BuyerEmail}}{{end}}</p>

    <table class="items">
        <thead>
            <tr><th>Item</th><th>SKU</th><th class="num">Qty</th><th class="num">Price</th><th class="num">Total</th></tr>
        </thead>
        <tbody>
            {{range .Order.Lines}}
            <tr>
                <td>{{.Name}}</td>
                <td>{{.SKU}}</td>
                <td class="num">{{.Quantity}}</td>
                <td class="num">{{money .PriceAtPurchase}}</td>
                <td class="num">{{money .LineTotal}}</td>
            </tr>
            {{end}}
            <tr class="total-row">
                <td colspan="4" class="num">Total ({{.Order.Currency}})</td>
                <td class="num">{{money .Order.TotalAmount}}</td>
            </tr>
        </tbody>
    </table>

    <div class="footer">
        <p>Thank you for shopping with {{.StoreName}}!</p>
        {{if .StoreEmail}}<p>Questions about this order? Contact {{.StoreEmail}}{{if .StorePhone}} or {{.StorePhone}}{{end}}</p>{{end}}
    </div>
</body>
</html>
`
