package signup

import (
	"html/template"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

var confirmationHTMLTemplate = template.Must(template.New("confirmation").Parse(`<html>
  <head></head>
  <body>
    <p>{{.Greeting}}</p>
    <p>{{.Welcome}}</p>
    <p>{{.Instruction}}</p>
    <a href="{{.Link}}">{{.LinkText}}</a>
    <p>{{.Disclaimer}}</p>
    <p>{{.Validity}}</p>
    <p>{{.Thanks}}</p>
    <p>{{.Team}}</p>
  </body>
</html>
`))

type confirmationEmailData struct {
	Greeting    string
	Welcome     string
	Instruction string
	Link        string
	LinkText    string
	Disclaimer  string
	Validity    string
	Thanks      string
	Team        string
}

func renderConfirmationHTML(url, token string, fragments map[string]string) (string, error) {
	var b strings.Builder

	err := confirmationHTMLTemplate.Execute(&b, confirmationEmailData{
		Greeting:    fragments["greeting"],
		Welcome:     fragments["welcome"],
		Instruction: fragments["instruction"],
		Link:        url + "?token=" + token,
		LinkText:    fragments["linkText"],
		Disclaimer:  fragments["disclaimer"],
		Validity:    fragments["validity"],
		Thanks:      fragments["thanks"],
		Team:        fragments["team"],
	})
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to render confirmation email")
	}

	return b.String(), nil
}
