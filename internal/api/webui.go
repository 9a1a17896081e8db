package api

import (
	"io/fs"
	"log"
	"mime"
	"net/http"
	"path"

	"github.com/Resinat/stalecheck/webui"
)

// registerShimAssets serves each embedded shim file under /shim/<name>.
func registerShimAssets(mux *http.ServeMux) {
	distFS, err := webui.DistFS()
	if err != nil {
		log.Printf("[api] shim assets disabled: %v", err)
		return
	}
	entries, err := fs.ReadDir(distFS, ".")
	if err != nil {
		log.Printf("[api] shim assets disabled: %v", err)
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		mux.Handle("GET /shim/"+entry.Name(), newShimAssetHandler(distFS, entry.Name()))
	}
}

func newShimAssetHandler(distFS fs.FS, name string) http.Handler {
	contentType := mime.TypeByExtension(path.Ext(name))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := fs.ReadFile(distFS, name)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.Header().Set("Cache-Control", "public, max-age=3600")
		_, _ = w.Write(data)
	})
}
