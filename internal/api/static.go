package api

import (
	"net/http"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// handleStatic serves the front end from the public directory. Extensionless
// paths fall back to "<path>.html", so /login serves login.html and
// /chapters/otas serves chapters.html.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	root := afero.NewBasePathFs(s.public, s.cfg.PublicDir)
	p := path.Clean("/" + r.URL.Path)

	if p != "/" && path.Ext(p) == "" {
		for _, candidate := range []string{p + ".html", "/" + firstSegment(p) + ".html"} {
			if ok, _ := afero.Exists(root, candidate); ok {
				r2 := r.Clone(r.Context())
				r2.URL.Path = candidate
				serveFile(root, w, r2)
				return
			}
		}
	}
	serveFile(root, w, r)
}

func serveFile(root afero.Fs, w http.ResponseWriter, r *http.Request) {
	http.FileServer(afero.NewHttpFs(root).Dir("/")).ServeHTTP(w, r)
}

func firstSegment(p string) string {
	seg, _, _ := strings.Cut(strings.TrimPrefix(p, "/"), "/")
	return seg
}
