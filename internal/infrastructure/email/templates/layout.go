// Package templates provides email template layout and content blocks.
package templates

import (
	"bytes"
	"html/template"
	"log"
)

// EmailLayoutProps configures the shared email chrome.
type EmailLayoutProps struct {
	Preheader      string
	Content        string
	FooterText     string
	CompanyAddress string
	UnsubscribeURL string
}

type emailTemplateData struct {
	Preheader      string
	Content        template.HTML // Mark as safe HTML to prevent escaping
	FooterText     string
	CompanyAddress string
	UnsubscribeURL string
}

var emailLayoutTemplate = template.Must(template.New("emailLayout").Parse(`
<!doctype html>
<html lang="en">
  <head>
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <meta http-equiv="Content-Type" content="text/html; charset=UTF-8">
    <title>MultiKonnect</title>
    <style media="all" type="text/css">
      @media only screen and (max-width: 640px) {
        .main p, .main td, .main span { font-size: 16px !important; }
        .wrapper { padding: 8px !important; }
        .container { padding: 0 !important; padding-top: 8px !important; width: 100% !important; }
        .main { border-left-width: 0 !important; border-radius: 0 !important; border-right-width: 0 !important; }
      }
    </style>
  </head>
  <body style="font-family: Helvetica, sans-serif; -webkit-font-smoothing: antialiased; font-size: 16px; line-height: 1.3; background-color: #f4f5f6; margin: 0; padding: 0;">
    <span class="preheader" style="color: transparent; display: none; height: 0; max-height: 0; max-width: 0; opacity: 0; overflow: hidden; visibility: hidden; width: 0;">{{.Preheader}}</span>
    <table role="presentation" border="0" cellpadding="0" cellspacing="0" class="body" style="border-collapse: separate; background-color: #f4f5f6; width: 100%;" width="100%" bgcolor="#f4f5f6">
      <tr>
        <td style="font-family: Helvetica, sans-serif; font-size: 16px; vertical-align: top;" valign="top">&nbsp;</td>
        <td class="container" style="font-family: Helvetica, sans-serif; font-size: 16px; vertical-align: top; max-width: 600px; padding: 0; padding-top: 24px; width: 600px; margin: 0 auto;" width="600" valign="top">
          <div class="content" style="box-sizing: border-box; display: block; margin: 0 auto; max-width: 600px; padding: 0;">
            <table role="presentation" border="0" cellpadding="0" cellspacing="0" class="main" style="border-collapse: separate; background: #ffffff; border: 1px solid #eaebed; border-radius: 16px; width: 100%;" width="100%">
              <tr>
                <td class="wrapper" style="font-family: Helvetica, sans-serif; font-size: 16px; vertical-align: top; box-sizing: border-box; padding: 24px;" valign="top">
                  {{.Content}}
                </td>
              </tr>
            </table>
            <div class="footer" style="clear: both; padding-top: 24px; text-align: center; width: 100%;">
              <table role="presentation" border="0" cellpadding="0" cellspacing="0" style="border-collapse: separate; width: 100%;" width="100%">
                <tr>
                  <td class="content-block" style="font-family: Helvetica, sans-serif; vertical-align: top; color: #9a9ea6; font-size: 16px; text-align: center;" valign="top" align="center">
                    <span style="color: #9a9ea6; font-size: 16px; text-align: center;">{{.FooterText}}</span>
                    {{if .CompanyAddress}}<br><span style="color: #9a9ea6; font-size: 12px;">{{.CompanyAddress}}</span>{{end}}
                    {{if .UnsubscribeURL}}<br><a href="{{.UnsubscribeURL}}" style="color: #9a9ea6; font-size: 12px; text-decoration: underline;">Unsubscribe</a>{{end}}
                  </td>
                </tr>
              </table>
            </div>
          </div>
        </td>
        <td style="font-family: Helvetica, sans-serif; font-size: 16px; vertical-align: top;" valign="top">&nbsp;</td>
      </tr>
    </table>
  </body>
</html>
`))

// GetEmailLayout renders the shared email layout around the given content.
func GetEmailLayout(props EmailLayoutProps) string {
	if props.FooterText == "" {
		props.FooterText = "MultiKonnect Marketplace"
	}

	data := emailTemplateData{
		Preheader:      props.Preheader,
		Content:        template.HTML(props.Content),
		FooterText:     props.FooterText,
		CompanyAddress: props.CompanyAddress,
		UnsubscribeURL: props.UnsubscribeURL,
	}

	var buf bytes.Buffer
	if err := emailLayoutTemplate.Execute(&buf, data); err != nil {
		log.Printf("ERROR: Failed to execute email layout template: %v", err)
		return props.Content
	}
	return buf.String()
}
