package compose

import (
	"fmt"
	"html/template"
	"io"
)

var (
	widgetTmpl = template.Must(template.New("widget").Parse(widgetTemplate))
	emptyTmpl  = template.Must(template.New("empty").Parse(emptyTemplate))
	errorTmpl  = template.Must(template.New("error").Parse(errorTemplate))
)

// Render writes the composed widget page.
func Render(w io.Writer, v View) error {
	if err := widgetTmpl.Execute(w, v); err != nil {
		return fmt.Errorf("rendering widget view: %w", err)
	}
	return nil
}

// EmptyView is the model for the no-document shell.
type EmptyView struct {
	// ShowNotice gates the one-shot slug/owner entry notice.
	ShowNotice bool
}

// RenderEmpty writes the "document required" shell.
func RenderEmpty(w io.Writer, v EmptyView) error {
	if err := emptyTmpl.Execute(w, v); err != nil {
		return fmt.Errorf("rendering empty view: %w", err)
	}
	return nil
}

// ErrorView is the model for access-denial pages.
type ErrorView struct {
	Heading           string
	Message           string
	Doc               string
	ShowPasscodeForm  bool
	PasscodeIncorrect bool
	LoginURL          string
}

// RenderError writes an access-denial page.
func RenderError(w io.Writer, v ErrorView) error {
	if err := errorTmpl.Execute(w, v); err != nil {
		return fmt.Errorf("rendering error view: %w", err)
	}
	return nil
}
