package notification

import (
	"bytes"
	html "html/template"
	"io"
	text "text/template"
)

// Template data mirrors what each message needs. Amounts arrive preformatted
// as decimal strings so the templates stay free of money arithmetic.

type confirmationItem struct {
	Name       string
	Quantity   int
	UnitPrice  string
	TotalPrice string
}

type confirmationData struct {
	StoreName    string
	CustomerName string
	OrderID      string
	Items        []confirmationItem
	AddressLines []string
	TotalAmount  string
}

type shippedItem struct {
	Name     string
	Quantity int
}

type shippedData struct {
	StoreName       string
	CustomerName    string
	OrderID         string
	TrackingNumber  string
	Carrier         string
	ShippedDate     string
	IsCustom        bool
	Description     string
	Colors          string
	Items           []shippedItem
	ProductImageURL string
}

type approvalData struct {
	StoreName   string
	Name        string
	Description string
	Colors      string
	QuotedPrice string
	PaymentLink string
}

type rejectionData struct {
	StoreName   string
	Name        string
	Description string
	Colors      string
	Reason      string
}

type paymentReceivedData struct {
	StoreName   string
	Name        string
	OrderID     string
	AmountTotal string
	QuotedPrice string
	Description string
	Colors      string
}

type newRequestData struct {
	Name        string
	Email       string
	Description string
	Colors      string
	Images      []string
}

var orderConfirmationTmpl = html.Must(html.New("order_confirmation").Parse(`<html>
<body style="font-family: Georgia, serif; color: #333; max-width: 600px; margin: 0 auto;">
  <h1 style="color: #6b4e8e;">Thank you for your order!</h1>
  {{if .CustomerName}}<p>Hi {{.CustomerName}},</p>{{end}}
  <p>We've received your order and will start preparing it right away.</p>
  <p style="color: #888;">Order reference: {{.OrderID}}</p>
  <table style="width: 100%; border-collapse: collapse;">
    <tr style="border-bottom: 2px solid #6b4e8e; text-align: left;">
      <th style="padding: 8px;">Item</th>
      <th style="padding: 8px;">Qty</th>
      <th style="padding: 8px;">Price</th>
      <th style="padding: 8px;">Total</th>
    </tr>
    {{range .Items}}
    <tr style="border-bottom: 1px solid #ddd;">
      <td style="padding: 8px;">{{.Name}}</td>
      <td style="padding: 8px;">{{.Quantity}}</td>
      <td style="padding: 8px;">${{.UnitPrice}}</td>
      <td style="padding: 8px;">${{.TotalPrice}}</td>
    </tr>
    {{end}}
  </table>
  <p style="font-size: 1.2em; text-align: right;"><strong>Total: ${{.TotalAmount}}</strong></p>
  {{if .AddressLines}}
  <h3>Shipping to</h3>
  <p>{{range .AddressLines}}{{.}}<br>{{end}}</p>
  {{end}}
  <p>We'll send you another email with tracking details once your order ships.</p>
  <p>With gratitude,<br>{{.StoreName}}</p>
</body>
</html>
`))

var orderShippedTmpl = html.Must(html.New("order_shipped").Parse(`<html>
<body style="font-family: Georgia, serif; color: #333; max-width: 600px; margin: 0 auto;">
  <h1 style="color: #6b4e8e;">Your order is on its way!</h1>
  {{if .CustomerName}}<p>Hi {{.CustomerName}},</p>{{end}}
  {{if .IsCustom}}
  <p>Your custom piece has shipped and is headed your way.</p>
  {{if .Description}}<p><em>{{.Description}}</em></p>{{end}}
  {{if .Colors}}<p>Colors: {{.Colors}}</p>{{end}}
  {{else}}
  <p>Your order has shipped and is headed your way.</p>
  {{if .Items}}
  <ul>
    {{range .Items}}<li>{{.Name}} &times; {{.Quantity}}</li>
    {{end}}
  </ul>
  {{end}}
  {{end}}
  {{if .ProductImageURL}}<p><img src="{{.ProductImageURL}}" alt="Your order" style="max-width: 300px;"></p>{{end}}
  <table style="border-collapse: collapse;">
    <tr><td style="padding: 4px 12px 4px 0; color: #888;">Order</td><td>{{.OrderID}}</td></tr>
    {{if .TrackingNumber}}<tr><td style="padding: 4px 12px 4px 0; color: #888;">Tracking</td><td>{{.TrackingNumber}}</td></tr>{{end}}
    {{if .Carrier}}<tr><td style="padding: 4px 12px 4px 0; color: #888;">Carrier</td><td>{{.Carrier}}</td></tr>{{end}}
    {{if .ShippedDate}}<tr><td style="padding: 4px 12px 4px 0; color: #888;">Shipped</td><td>{{.ShippedDate}}</td></tr>{{end}}
  </table>
  <p>With gratitude,<br>{{.StoreName}}</p>
</body>
</html>
`))

var approvalTmpl = text.Must(text.New("custom_approved").Parse(`Hi {{.Name}},

Great news! Your custom order request has been approved.

Your request:
{{.Description}}
{{if .Colors}}Colors: {{.Colors}}
{{end}}
Quoted price: ${{.QuotedPrice}}

Complete your payment here to get started:
{{.PaymentLink}}

Once payment is received we'll begin making your piece right away.

With gratitude,
{{.StoreName}}
`))

var rejectionTmpl = text.Must(text.New("custom_rejected").Parse(`Hi {{.Name}},

Thank you for your custom order request:
{{.Description}}
{{if .Colors}}Colors: {{.Colors}}
{{end}}
Unfortunately we're unable to take this one on right now.
{{if .Reason}}
{{.Reason}}
{{end}}
We'd love to hear from you again with a future idea.

With gratitude,
{{.StoreName}}
`))

var paymentReceivedTmpl = text.Must(text.New("payment_received").Parse(`Hi {{.Name}},

We've received your payment of ${{.AmountTotal}} and your custom order is now in production!

Order reference: {{.OrderID}}
{{if .QuotedPrice}}Quoted price: ${{.QuotedPrice}}
{{end}}
Your piece:
{{.Description}}
{{if .Colors}}Colors: {{.Colors}}
{{end}}
We'll email you tracking details as soon as it ships.

With gratitude,
{{.StoreName}}
`))

var newRequestTmpl = text.Must(text.New("new_request_alert").Parse(`New custom order request received.

Name: {{.Name}}
Email: {{.Email}}
{{if .Colors}}Colors: {{.Colors}}
{{end}}
Description:
{{.Description}}
{{if .Images}}
Reference images:
{{range .Images}}  {{.}}
{{end}}{{end}}`))

type executor interface {
	Execute(w io.Writer, data interface{}) error
}

func render(t executor, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
