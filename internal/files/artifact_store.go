package files

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"qrdash/internal/models"
	"qrdash/internal/qr"
)

const DefaultOutputDir = "qr_codes"

var filenameReplacer = strings.NewReplacer(" ", "_", "/", "_", `\`, "_")

// ArtifactName is the PNG filename used for an app on disk and in
// downloads: spaces become underscores and "_QR.png" is appended. Path
// separators are replaced as well so a name cannot leave the output dir.
func ArtifactName(name string) string {
	return filenameReplacer.Replace(name) + "_QR.png"
}

// ArtifactStore writes registry QR codes into one directory. Files are
// overwritten on every write.
type ArtifactStore struct {
	dir string
}

func NewArtifactStore(dir string) *ArtifactStore {
	if dir == "" {
		dir = DefaultOutputDir
	}
	return &ArtifactStore{dir: dir}
}

func (a *ArtifactStore) Dir() string { return a.dir }

// Write stores png for the app called name and returns the file path.
func (a *ArtifactStore) Write(name string, png []byte) (string, error) {
	if err := os.MkdirAll(a.dir, 0755); err != nil {
		return "", fmt.Errorf("create %s: %w", a.dir, err)
	}
	path := filepath.Join(a.dir, ArtifactName(name))
	if err := os.WriteFile(path, png, 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// Artifact is one rendered registry entry.
type Artifact struct {
	models.AppEntry
	Filename string
	Path     string
	PNG      []byte
}

// WriteAll renders every entry black on white and writes it to disk, in
// order. It stops at the first failure.
func (a *ArtifactStore) WriteAll(entries []models.AppEntry) ([]Artifact, error) {
	out := make([]Artifact, 0, len(entries))
	for _, e := range entries {
		png, err := qr.DefaultPNG(e.URL)
		if err != nil {
			return nil, fmt.Errorf("render %q: %w", e.Name, err)
		}
		path, err := a.Write(e.Name, png)
		if err != nil {
			return nil, err
		}
		out = append(out, Artifact{
			AppEntry: e,
			Filename: ArtifactName(e.Name),
			Path:     path,
			PNG:      png,
		})
	}
	return out, nil
}
