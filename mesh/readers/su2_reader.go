package readers

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/notargets/fvmesh/mesh"
)

// su2ElementTypeMap maps SU2/VTK element type identifiers to our ElementType
var su2ElementTypeMap = map[int]mesh.ElementType{
	3:  mesh.Line,     // VTK_LINE
	5:  mesh.Triangle, // VTK_TRIANGLE
	9:  mesh.Quad,     // VTK_QUAD
	10: mesh.Tet,      // VTK_TETRA
	12: mesh.Hex,      // VTK_HEXAHEDRON
	13: mesh.Prism,    // VTK_WEDGE
	14: mesh.Pyramid,  // VTK_PYRAMID
}

// ReadSU2 reads an SU2 native format file
func ReadSU2(filename string) (*mesh.RawMesh, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	raw, err := ParseSU2(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return raw, nil
}

// ParseSU2 reads the SU2 sections NDIME, NPOIN, NELEM and NMARK. Node and
// element ids are implicit in file order; a trailing explicit id on legacy
// files is ignored.
func ParseSU2(r io.Reader) (*mesh.RawMesh, error) {
	var (
		raw                = &mesh.RawMesh{}
		scanner            = bufio.NewScanner(r)
		ndime              int
		hasNDIME, hasNPOIN bool
		err                error
	)
	next := func(what string) ([]string, error) {
		if !scanner.Scan() {
			return nil, fmt.Errorf("unexpected EOF reading %s", what)
		}
		return strings.Fields(scanner.Text()), nil
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		// Text after % is a comment
		if idx := strings.Index(line, "%"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "NDIME="):
			hasNDIME = true
			fmt.Sscanf(line, "NDIME=%d", &ndime)
			if ndime != 2 && ndime != 3 {
				return nil, fmt.Errorf("unsupported dimension: NDIME=%d", ndime)
			}

		case strings.HasPrefix(line, "NPOIN="):
			if !hasNDIME {
				return nil, fmt.Errorf("NPOIN= before NDIME=")
			}
			hasNPOIN = true
			npoin, err := sectionCount(line, "NPOIN=")
			if err != nil {
				return nil, err
			}
			raw.Vertices = make([][]float64, npoin)
			for i := 0; i < npoin; i++ {
				fields, err := next("nodes")
				if err != nil {
					return nil, err
				}
				if len(fields) < ndime {
					return nil, fmt.Errorf("node %d: expected at least %d coordinates", i, ndime)
				}
				coords := make([]float64, 3)
				for j := 0; j < ndime; j++ {
					if coords[j], err = strconv.ParseFloat(fields[j], 64); err != nil {
						return nil, fmt.Errorf("node %d: invalid coordinate: %w", i, err)
					}
				}
				raw.Vertices[i] = coords
			}

		case strings.HasPrefix(line, "NELEM="):
			nelem, err := sectionCount(line, "NELEM=")
			if err != nil {
				return nil, err
			}
			raw.EtoV = make([][]int, 0, nelem)
			raw.ElementTypes = make([]mesh.ElementType, 0, nelem)
			raw.ElementTags = make([]int, 0, nelem)
			for i := 0; i < nelem; i++ {
				fields, err := next("elements")
				if err != nil {
					return nil, err
				}
				etype, nodes, err := parseSU2Element(fields)
				if err != nil {
					return nil, fmt.Errorf("element %d: %w", i, err)
				}
				raw.EtoV = append(raw.EtoV, nodes)
				raw.ElementTypes = append(raw.ElementTypes, etype)
				raw.ElementTags = append(raw.ElementTags, 0)
			}

		case strings.HasPrefix(line, "NMARK="):
			nmark, err := sectionCount(line, "NMARK=")
			if err != nil {
				return nil, err
			}
			for i := 0; i < nmark; i++ {
				if !scanner.Scan() {
					return nil, fmt.Errorf("unexpected EOF reading marker %d", i)
				}
				markerLine := strings.TrimSpace(scanner.Text())
				if !strings.HasPrefix(markerLine, "MARKER_TAG=") {
					return nil, fmt.Errorf("expected MARKER_TAG=, got: %s", markerLine)
				}
				marker := mesh.Marker{Name: strings.TrimSpace(strings.TrimPrefix(markerLine, "MARKER_TAG="))}

				if !scanner.Scan() {
					return nil, fmt.Errorf("unexpected EOF reading marker elements for %s", marker.Name)
				}
				elemLine := strings.TrimSpace(scanner.Text())
				nMarkerElems, err := sectionCount(elemLine, "MARKER_ELEMS=")
				if err != nil {
					return nil, err
				}
				for j := 0; j < nMarkerElems; j++ {
					fields, err := next("boundary elements")
					if err != nil {
						return nil, err
					}
					btype, nodes, err := parseSU2Element(fields)
					if err != nil {
						return nil, fmt.Errorf("marker %s element %d: %w", marker.Name, j, err)
					}
					if btype.IsVolume() {
						return nil, fmt.Errorf("marker %s element %d: %s is not a boundary element",
							marker.Name, j, btype)
					}
					marker.Faces = append(marker.Faces, nodes)
				}
				raw.Markers = append(raw.Markers, marker)
			}
		}
	}
	if err = scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	if !hasNDIME {
		return nil, fmt.Errorf("missing required NDIME= section")
	}
	if !hasNPOIN {
		return nil, fmt.Errorf("missing required NPOIN= section")
	}
	return raw, nil
}

// sectionCount reads the entry count of a "KEY= n" line.
func sectionCount(line, key string) (n int, err error) {
	if _, err = fmt.Sscanf(line, key+"%d", &n); err != nil {
		return 0, fmt.Errorf("invalid %s line: %s", key, line)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative count in %s line: %d", key, n)
	}
	return n, nil
}

func parseSU2Element(fields []string) (etype mesh.ElementType, nodes []int, err error) {
	if len(fields) < 2 {
		err = fmt.Errorf("invalid element line")
		return
	}
	su2Type, err := strconv.Atoi(fields[0])
	if err != nil {
		err = fmt.Errorf("invalid element type: %w", err)
		return
	}
	etype, ok := su2ElementTypeMap[su2Type]
	if !ok {
		err = fmt.Errorf("unknown element type: %d", su2Type)
		return
	}
	numNodes := etype.GetNumNodes()
	if len(fields) < numNodes+1 {
		err = fmt.Errorf("element type %v expects %d nodes, got %d fields",
			etype, numNodes, len(fields)-1)
		return
	}
	nodes = make([]int, numNodes)
	for j := range nodes {
		if nodes[j], err = strconv.Atoi(fields[1+j]); err != nil {
			err = fmt.Errorf("invalid node index: %w", err)
			return
		}
	}
	return
}
