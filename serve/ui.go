package serve

import (
	"embed"
	"io/fs"
	"net/http"
	"os"

	assetfs "github.com/elazarl/go-bindata-assetfs"
)

//go:embed web
var web embed.FS

func assetDir(name string) ([]string, error) {
	entries, err := fs.ReadDir(web, name)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

func assetInfo(name string) (os.FileInfo, error) {
	return fs.Stat(web, name)
}

// NewUI serves the control page: the output stream plus one toggle button
// per layer.
func NewUI() http.Handler {
	return http.FileServer(&assetfs.AssetFS{
		Asset:     web.ReadFile,
		AssetDir:  assetDir,
		AssetInfo: assetInfo,
		Prefix:    "web",
	})
}
