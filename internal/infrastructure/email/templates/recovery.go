package templates

import (
	"bytes"
	"html/template"
	"log"
)

// RecoveryItem is a single cart line rendered in the reminder email.
type RecoveryItem struct {
	Name         string
	Quantity     int
	Price        float64
	ThumbnailURL string
}

// RecoveryEmailProps configures the cart recovery reminder content block.
type RecoveryEmailProps struct {
	Name         string
	Items        []RecoveryItem
	Total        float64
	RecoveryURL  string
	DiscountCode string
	ExpiresDays  int
}

var recoveryEmailTemplate = template.Must(template.New("recoveryEmail").Parse(`
<p style="font-family: Helvetica, sans-serif; font-size: 16px; font-weight: normal; margin: 0; margin-bottom: 16px;">Hi {{.Name}},</p>
<p style="font-family: Helvetica, sans-serif; font-size: 16px; font-weight: normal; margin: 0; margin-bottom: 16px;">You left some great items in your cart. They are still waiting for you:</p>
<table role="presentation" border="0" cellpadding="0" cellspacing="0" style="border-collapse: separate; width: 100%; margin-bottom: 16px;" width="100%">
  {{range .Items}}
  <tr>
    {{if .ThumbnailURL}}<td style="font-family: Helvetica, sans-serif; vertical-align: middle; padding: 8px; width: 72px;" valign="middle"><img src="{{.ThumbnailURL}}" alt="{{.Name}}" width="64" style="border-radius: 8px; display: block;"></td>{{end}}
    <td style="font-family: Helvetica, sans-serif; font-size: 16px; vertical-align: middle; padding: 8px;" valign="middle">{{.Name}} &times; {{.Quantity}}</td>
    <td style="font-family: Helvetica, sans-serif; font-size: 16px; vertical-align: middle; padding: 8px; text-align: right;" valign="middle" align="right">${{printf "%.2f" .Price}}</td>
  </tr>
  {{end}}
  <tr>
    <td colspan="3" style="font-family: Helvetica, sans-serif; font-size: 16px; font-weight: bold; padding: 8px; text-align: right; border-top: 1px solid #eaebed;" align="right">Total: ${{printf "%.2f" .Total}}</td>
  </tr>
</table>
{{if .DiscountCode}}
<p style="font-family: Helvetica, sans-serif; font-size: 16px; font-weight: normal; margin: 0; margin-bottom: 16px;">Use code <strong>{{.DiscountCode}}</strong> at checkout for a discount on this order.</p>
{{end}}
<table role="presentation" border="0" cellpadding="0" cellspacing="0" class="btn btn-primary" style="border-collapse: separate; box-sizing: border-box; width: 100%; min-width: 100%;" width="100%">
  <tbody>
    <tr>
      <td align="center" style="font-family: Helvetica, sans-serif; font-size: 16px; vertical-align: top; padding-bottom: 16px;" valign="top">
        <a href="{{.RecoveryURL}}" target="_blank" style="border: solid 2px #0867ec; border-radius: 4px; box-sizing: border-box; cursor: pointer; display: inline-block; font-size: 16px; font-weight: bold; margin: 0; padding: 12px 24px; text-decoration: none; background-color: #0867ec; border-color: #0867ec; color: #ffffff;">Restore my cart</a>
      </td>
    </tr>
  </tbody>
</table>
<p style="font-family: Helvetica, sans-serif; font-size: 14px; font-weight: normal; margin: 0; color: #9a9ea6;">This link expires in {{.ExpiresDays}} days.</p>
`))

// GetRecoveryEmailContent renders the cart recovery reminder content block.
func GetRecoveryEmailContent(props RecoveryEmailProps) string {
	if props.Name == "" {
		props.Name = "there"
	}

	var buf bytes.Buffer
	if err := recoveryEmailTemplate.Execute(&buf, props); err != nil {
		log.Printf("ERROR: Failed to execute recovery email template: %v", err)
		return ""
	}
	return buf.String()
}
