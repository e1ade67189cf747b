// Package scenes enumerates the 3D scene assets available for simulation.
package scenes

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Scene describes one available scene asset.
type Scene struct {
	Name    string `json:"name"`
	Folder  string `json:"folder"`
	GLBFile string `json:"glb_file"`
	Path    string `json:"path"`
}

// List scans dir for scene folders, each identified by containing at least
// one .glb file. A missing assets directory yields an empty list, not an
// error, so a store deployed without assets still serves requests.
func List(dir string) ([]Scene, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []Scene{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read assets dir: %w", err)
	}

	result := []Scene{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		glb, err := firstGLB(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		if glb == "" {
			continue
		}
		result = append(result, Scene{
			Name:    entry.Name(),
			Folder:  entry.Name(),
			GLBFile: glb,
			Path:    "/3d_models/" + entry.Name() + "/" + glb,
		})
	}
	return result, nil
}

func firstGLB(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read scene dir: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".glb") {
			return entry.Name(), nil
		}
	}
	return "", nil
}
