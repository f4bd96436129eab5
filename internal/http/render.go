package http

import (
	"bytes"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

var pageTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// resolveReport maps a request path onto a markdown file under reportsDir.
// Paths that escape reportsDir or do not name a .md file are rejected.
func resolveReport(reportsDir, rel string) (string, error) {
	rel = strings.TrimPrefix(filepath.ToSlash(rel), "/")
	if rel == "" || !strings.HasSuffix(rel, ".md") {
		return "", echo.NewHTTPError(http.StatusNotFound, "report not found")
	}
	path := filepath.Join(reportsDir, filepath.FromSlash(rel))
	within, err := filepath.Rel(reportsDir, path)
	if err != nil || within == ".." || strings.HasPrefix(within, ".."+string(filepath.Separator)) {
		return "", echo.NewHTTPError(http.StatusNotFound, "report not found")
	}
	return path, nil
}

func readReport(path string) ([]byte, error) {
	body, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, echo.NewHTTPError(http.StatusNotFound, "report not found")
	}
	return body, err
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get(echo.HeaderAccept), echo.MIMETextHTML)
}

// renderHTML converts a markdown report into a standalone HTML page titled
// by its first heading.
func renderHTML(source []byte) ([]byte, error) {
	var body bytes.Buffer
	if err := markdown.Convert(source, &body); err != nil {
		return nil, err
	}
	var page bytes.Buffer
	err := pageTemplate.Execute(&page, struct {
		Title string
		Body  template.HTML
	}{
		Title: reportTitle(source),
		Body:  template.HTML(body.String()),
	})
	return page.Bytes(), err
}

func reportTitle(source []byte) string {
	for _, line := range strings.Split(string(source), "\n") {
		if title, ok := strings.CutPrefix(line, "# "); ok {
			return strings.TrimSpace(title)
		}
	}
	return "ohmymkt report"
}
