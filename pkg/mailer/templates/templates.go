package templates

import (
	"bytes"
	"fmt"
	htmltpl "html/template"
	texttpl "text/template"
)

const welcomeSubject = "Welcome to tulisku"

const welcomeText = `Hi {{.Username}},

Your account is ready. Sign in and write your first post.

— tulisku`

const welcomeHTML = `<!doctype html>
<html>
  <body style="font-family: sans-serif; color: #222;">
    <h2>Welcome, {{.Username}}!</h2>
    <p>Your account is ready. Sign in and write your first post.</p>
    <p style="color:#888;">— tulisku</p>
  </body>
</html>`

var (
	welcomeTextTpl = texttpl.Must(texttpl.New("welcome_text").Parse(welcomeText))
	welcomeHTMLTpl = htmltpl.Must(htmltpl.New("welcome_html").Parse(welcomeHTML))
)

// Render produces subject, text, and HTML bodies for a named template.
func Render(name string, data map[string]any) (subject, text, html string, err error) {
	switch name {
	case "welcome":
		var tb, hb bytes.Buffer
		if err = welcomeTextTpl.Execute(&tb, data); err != nil {
			return
		}
		if err = welcomeHTMLTpl.Execute(&hb, data); err != nil {
			return
		}
		return welcomeSubject, tb.String(), hb.String(), nil
	default:
		return "", "", "", fmt.Errorf("unknown email template %q", name)
	}
}
