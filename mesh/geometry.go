package mesh

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// FaceCenter is the vertex average of face g.
func (m *Mesh) FaceCenter(g int) (r3.Vec, error) {
	verts, err := m.FaceVertices(g)
	if err != nil {
		return r3.Vec{}, err
	}
	var c r3.Vec
	for _, v := range verts {
		c = r3.Add(c, m.Vertices[v])
	}
	if len(verts) > 0 {
		c = r3.Scale(1/float64(len(verts)), c)
	}
	return c, nil
}

// FaceNormal is the area weighted normal of face g computed with Newell's
// method; it points out of the face's first neighbor.
func (m *Mesh) FaceNormal(g int) (r3.Vec, error) {
	verts, err := m.FaceVertices(g)
	if err != nil {
		return r3.Vec{}, err
	}
	return polygonNormal(m.Vertices, verts), nil
}

func polygonNormal(coords []r3.Vec, verts []int) (n r3.Vec) {
	nv := len(verts)
	for i := 0; i < nv; i++ {
		n = r3.Add(n, r3.Cross(coords[verts[i]], coords[verts[(i+1)%nv]]))
	}
	return r3.Scale(0.5, n)
}

// CellCentroids approximates each cell center (rows of cf) by the average of
// its face centers.
func (m *Mesh) CellCentroids(cf *CellFaces) ([]r3.Vec, error) {
	centers := make([]r3.Vec, cf.N())
	for i := range centers {
		faces := cf.RowUnchecked(i)
		for _, g := range faces {
			fc, err := m.FaceCenter(g)
			if err != nil {
				return nil, err
			}
			centers[i] = r3.Add(centers[i], fc)
		}
		if len(faces) > 0 {
			centers[i] = r3.Scale(1/float64(len(faces)), centers[i])
		}
	}
	return centers, nil
}

// CellVolumes applies the divergence theorem to the rows of cf: the volume
// of a cell is a third of the outward flux of the position vector through
// its faces, gathered with the signed incidence matrix. Exact for planar
// faces.
func (m *Mesh) CellVolumes(cf *CellFaces) ([]float64, error) {
	var (
		nFaces  = m.NumFaces()
		volumes = make([]float64, cf.N())
	)
	if len(volumes) == 0 || nFaces == 0 {
		return volumes, nil
	}
	flux := make([]float64, nFaces)
	for g := range flux {
		fc, err := m.FaceCenter(g)
		if err != nil {
			return nil, err
		}
		n, err := m.FaceNormal(g)
		if err != nil {
			return nil, err
		}
		flux[g] = r3.Dot(fc, n) / 3
	}
	cf.Incidence(nFaces).MulVecTo(volumes, false, flux)
	return volumes, nil
}
