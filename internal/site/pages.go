package site

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html.tmpl"))

// indexPage is the data behind the main page.
type indexPage struct {
	Title      string
	Version    string
	Address    string
	Brightness int
}

// configPage is the data behind the configuration form.
type configPage struct {
	Title       string
	SSID        string
	Password    string
	Timezone    string
	MaxSSID     int
	MaxPassword int
}

// render executes the named template. User values are escaped by
// html/template.
func render(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
