// Package readers loads element based mesh files and converts them into the
// face based numbering of package mesh.
package readers

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/notargets/fvmesh/mesh"
)

// ReadRawMesh reads a mesh file based on extension
func ReadRawMesh(filename string) (*mesh.RawMesh, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".neu":
		return ReadGambitNeutral(filename)
	case ".su2":
		return ReadSU2(filename)
	default:
		return nil, fmt.Errorf("unsupported mesh format: %s", ext)
	}
}

// ReadMeshFile reads a mesh file and builds its face connectivity.
func ReadMeshFile(filename string) (*mesh.Mesh, error) {
	raw, err := ReadRawMesh(filename)
	if err != nil {
		return nil, err
	}
	m, err := mesh.FromElements(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return m, nil
}
