//go:build bananadebug

package render

import (
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

// dumpSurface writes every composited surface to BANANALAB_DEBUG_DIR.
func dumpSurface(name string, img image.Image) {
	dir := os.Getenv("BANANALAB_DEBUG_DIR")
	if dir == "" {
		return
	}
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ':' {
			return '_'
		}
		return r
	}, name)
	path := filepath.Join(dir, name+"-"+time.Now().Format("150405.000")+".png")
	if err := imaging.Save(img, path); err != nil {
		log.Warn("diagnostic dump %s: %v", path, err)
		return
	}
	log.Debug("diagnostic dump written to %s", path)
}
