// Package schema defines the canonical in-memory representation of
// unstructured-mesh ocean model output.
//
// # Canonical Schema
//
// Heterogeneous solver files (SCHISM, ADCIRC, TELEMAC) are normalized into a
// single layout so that every downstream consumer (mesh operations, renderers,
// the HTTP API) can ignore the originating solver entirely:
//
//	Dimensions:
//	  node     mesh vertex index
//	  triface  triangular element index
//	  time     optional output timestep
//	  layer    optional vertical layer (3D runs)
//
//	Coordinates / mesh variables:
//	  lon, lat       per-node WGS-84 coordinates (degrees)
//	  depth          per-node bathymetry (meters, positive down), optional
//	  triface_nodes  (triface, 3) element connectivity, 0-based
//
//	Data variables:
//	  anything with dims (node), (time, node) or (time, node, layer),
//	  e.g. elev, elev_max, salinity, ...
//
// Variables with any other dimensionality are carried through for provenance
// but are not visualizable; see [Dataset.VisualizableVariables].
//
// # Quadrangle Elements
//
// Some solvers emit mixed triangle/quadrangle meshes as a (face, 4) array with
// a fill value in the fourth column for triangles. Normalization splits each
// quadrangle into two triangles before building Triangles, so the canonical
// connectivity is always strictly triangular. See [SplitQuads].
//
// # Immutability
//
// A Dataset is produced once per input file and is treated as immutable by
// consumers. Mesh operations that change topology (cropping, dropping
// dateline-crossing elements) return a new Dataset.
package schema
