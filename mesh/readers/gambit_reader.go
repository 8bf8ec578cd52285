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

// gambitElementTypeMap maps Gambit NTYPE codes to our ElementType
var gambitElementTypeMap = map[int]mesh.ElementType{
	1: mesh.Line,     // Edge
	2: mesh.Quad,     // Quadrilateral
	3: mesh.Triangle, // Triangle
	4: mesh.Hex,      // Brick
	5: mesh.Prism,    // Wedge
	6: mesh.Tet,      // Tetrahedron
	7: mesh.Pyramid,  // Pyramid
}

// ReadGambitNeutral reads a Gambit neutral file (.neu)
func ReadGambitNeutral(filename string) (*mesh.RawMesh, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	raw, err := ParseGambitNeutral(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return raw, nil
}

// ParseGambitNeutral reads the control info, nodal coordinates, elements,
// element groups and element/face boundary condition sets. Element tags are
// the id of the group holding the element. Node based boundary sets are
// skipped.
func ParseGambitNeutral(r io.Reader) (*mesh.RawMesh, error) {
	var (
		raw          = &mesh.RawMesh{}
		scanner      = bufio.NewScanner(r)
		numnp, nelem int
		haveControl  bool
	)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.Contains(line, "NUMNP") && strings.Contains(line, "NELEM") {
			// Next line contains the actual values
			if !scanner.Scan() {
				return nil, fmt.Errorf("unexpected EOF after control header")
			}
			values := strings.Fields(scanner.Text())
			if len(values) < 4 {
				return nil, fmt.Errorf("short control info line: %q", scanner.Text())
			}
			// NGRPS and NBSETS are implied by the section headers that follow
			numnp, _ = strconv.Atoi(values[0])
			nelem, _ = strconv.Atoi(values[1])
			if numnp < 0 || nelem < 0 {
				return nil, fmt.Errorf("negative counts in control info: NUMNP=%d NELEM=%d", numnp, nelem)
			}
			haveControl = true
			break
		}
	}
	if !haveControl {
		return nil, fmt.Errorf("missing CONTROL INFO section")
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "ENDOFSECTION" {
			continue
		}

		switch {
		case strings.Contains(line, "NODAL COORDINATES"):
			raw.Vertices = make([][]float64, numnp)
			for i := 0; i < numnp; i++ {
				if !scanner.Scan() {
					return nil, fmt.Errorf("unexpected EOF reading nodes")
				}
				fields := strings.Fields(scanner.Text())
				if len(fields) < 3 {
					return nil, fmt.Errorf("invalid node line: %q", scanner.Text())
				}
				nodeID, _ := strconv.Atoi(fields[0])
				// Gambit uses 1-based node IDs
				idx := nodeID - 1
				if idx < 0 || idx >= numnp {
					return nil, fmt.Errorf("node id %d out of range [1,%d]", nodeID, numnp)
				}
				coords := make([]float64, 3)
				for j := 1; j < len(fields) && j <= 3; j++ {
					coords[j-1], _ = strconv.ParseFloat(fields[j], 64)
				}
				raw.Vertices[idx] = coords
			}

		case strings.Contains(line, "ELEMENTS/CELLS"):
			raw.EtoV = make([][]int, 0, nelem)
			raw.ElementTypes = make([]mesh.ElementType, 0, nelem)
			raw.ElementTags = make([]int, 0, nelem)
			for i := 0; i < nelem; i++ {
				if !scanner.Scan() {
					return nil, fmt.Errorf("unexpected EOF reading elements")
				}
				fields := strings.Fields(scanner.Text())
				if len(fields) < 3 {
					return nil, fmt.Errorf("element %d: invalid line", i+1)
				}
				gambitType, _ := strconv.Atoi(fields[1])
				numNodes, _ := strconv.Atoi(fields[2])
				etype, ok := gambitElementTypeMap[gambitType]
				if !ok {
					return nil, fmt.Errorf("element %d: unknown element type %d", i+1, gambitType)
				}
				if numNodes < 0 {
					return nil, fmt.Errorf("element %d: negative node count %d", i+1, numNodes)
				}
				// Long node lists continue on the following lines
				for len(fields) < 3+numNodes {
					if !scanner.Scan() {
						return nil, fmt.Errorf("unexpected EOF reading element %d nodes", i+1)
					}
					fields = append(fields, strings.Fields(scanner.Text())...)
				}
				nodes := make([]int, numNodes)
				for j := range nodes {
					nodeID, _ := strconv.Atoi(fields[3+j])
					// Convert from 1-based to 0-based
					nodes[j] = nodeID - 1
				}
				raw.EtoV = append(raw.EtoV, nodes)
				raw.ElementTypes = append(raw.ElementTypes, etype)
				raw.ElementTags = append(raw.ElementTags, 0)
			}

		case strings.Contains(line, "ELEMENT GROUP"):
			if err := readGambitGroup(scanner, raw); err != nil {
				return nil, err
			}

		case strings.Contains(line, "BOUNDARY CONDITIONS"):
			if err := readGambitBoundarySet(scanner, raw); err != nil {
				return nil, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}
	return raw, nil
}

func readGambitGroup(scanner *bufio.Scanner, raw *mesh.RawMesh) error {
	if !scanner.Scan() {
		return fmt.Errorf("unexpected EOF reading element group")
	}
	var groupID, numElems, nflags int
	parts := strings.Fields(scanner.Text())
	for i := 0; i < len(parts)-1; i++ {
		switch parts[i] {
		case "GROUP:":
			groupID, _ = strconv.Atoi(parts[i+1])
		case "ELEMENTS:":
			numElems, _ = strconv.Atoi(parts[i+1])
		case "NFLAGS:":
			nflags, _ = strconv.Atoi(parts[i+1])
		}
	}
	// Entity name
	if !scanner.Scan() {
		return fmt.Errorf("unexpected EOF reading group %d name", groupID)
	}
	// Flags line
	if nflags > 0 && !scanner.Scan() {
		return fmt.Errorf("unexpected EOF reading group %d flags", groupID)
	}

	for read := 0; read < numElems; {
		if !scanner.Scan() {
			return fmt.Errorf("unexpected EOF reading group %d elements", groupID)
		}
		for _, field := range strings.Fields(scanner.Text()) {
			elemID, err := strconv.Atoi(field)
			if err != nil || elemID < 1 || elemID > len(raw.EtoV) {
				return fmt.Errorf("group %d: invalid element id %q", groupID, field)
			}
			// Elements are 1-indexed in file, 0-indexed in mesh
			raw.ElementTags[elemID-1] = groupID
			read++
		}
	}
	return nil
}

func readGambitBoundarySet(scanner *bufio.Scanner, raw *mesh.RawMesh) error {
	if !scanner.Scan() {
		return fmt.Errorf("unexpected EOF reading boundary set")
	}
	// Format: NAME ITYPE NENTRY NVALUES IBCODE1 ...
	parts := strings.Fields(scanner.Text())
	if len(parts) < 3 {
		return fmt.Errorf("invalid boundary set header: %q", scanner.Text())
	}
	marker := mesh.Marker{Name: parts[0]}
	itype, _ := strconv.Atoi(parts[1]) // 0=node, 1=element/cell
	nentry, _ := strconv.Atoi(parts[2])

	for i := 0; i < nentry; i++ {
		if !scanner.Scan() {
			return fmt.Errorf("unexpected EOF reading boundary set %s", marker.Name)
		}
		if itype != 1 {
			continue
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			return fmt.Errorf("boundary set %s: invalid entry %q", marker.Name, scanner.Text())
		}
		elemID, _ := strconv.Atoi(fields[0])
		faceID, _ := strconv.Atoi(fields[2])
		elemIdx := elemID - 1
		if elemIdx < 0 || elemIdx >= len(raw.EtoV) {
			return fmt.Errorf("boundary set %s: element %d out of range", marker.Name, elemID)
		}
		faces := mesh.GetElementFaces(raw.ElementTypes[elemIdx], raw.EtoV[elemIdx])
		// Face IDs are 1-based
		if faceID < 1 || faceID > len(faces) {
			return fmt.Errorf("boundary set %s: element %d has no face %d", marker.Name, elemID, faceID)
		}
		marker.Faces = append(marker.Faces, faces[faceID-1])
	}
	if itype == 1 {
		raw.Markers = append(raw.Markers, marker)
	}
	return nil
}
