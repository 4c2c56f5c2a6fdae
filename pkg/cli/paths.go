package cli

import (
	"os"
	"path/filepath"
)

// Paths locates the per-app directories under ~/.normacomex.
type Paths struct {
	AppName string
	HomeDir string
}

func NewPaths(appName string) (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &Paths{AppName: appName, HomeDir: home}, nil
}

// AppDir is ~/.normacomex/<app>.
func (p *Paths) AppDir() string {
	return filepath.Join(p.HomeDir, DefaultBaseDir, p.AppName)
}

func (p *Paths) ConfigFile() string {
	return filepath.Join(p.AppDir(), DefaultConfigFile)
}

// DataDir holds the catalog database.
func (p *Paths) DataDir() string {
	return filepath.Join(p.AppDir(), "data")
}

// ExportDir is where exported PDFs are written by default.
func (p *Paths) ExportDir() string {
	return filepath.Join(p.AppDir(), "exports")
}

// Ensure creates dir and its parents.
func Ensure(dir string) (string, error) {
	return dir, os.MkdirAll(dir, 0o755)
}
