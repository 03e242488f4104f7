package web

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
)

//go:embed docs/*.md
var docsFS embed.FS

// DocsPageWebHandler renders an embedded markdown page as HTML, falling
// back to index.md when no page is named.
func DocsPageWebHandler(w http.ResponseWriter, r *http.Request) {
	page := r.URL.Query().Get("page")
	if page == "" {
		page = "index"
	}

	md, err := fs.ReadFile(docsFS, filepath.Join("docs", page+".md"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	var buf bytes.Buffer
	if err := goldmark.Convert(md, &buf); err != nil {
		http.Error(w, "error rendering markdown", http.StatusInternalServerError)
		return
	}

	entries, _ := docsFS.ReadDir("docs")
	var pages []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".md") {
			pages = append(pages, strings.TrimSuffix(entry.Name(), ".md"))
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, docPageShell, page, strings.Join(navLinks(pages), "\n"), buf.String())
}

func navLinks(pages []string) []string {
	links := make([]string, len(pages))
	for i, p := range pages {
		links[i] = fmt.Sprintf(`<li><a href="/docs?page=%s">%s</a></li>`, p, p)
	}
	return links
}

const docPageShell = `<!DOCTYPE html>
<html>
<head><title>luxera docs: %s</title></head>
<body>
<nav><ul>%s</ul></nav>
<article>%s</article>
</body>
</html>`
