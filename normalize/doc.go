// Package normalize converts raw solver output into the canonical schema.
//
// # Supported Solvers
//
// Detection is purely structural: each solver family leaves unmistakable
// variable names in its netCDF output, so no user hint is required.
//
//	SCHISM   SCHISM_hgrid_node_x/_y node coordinates and
//	         SCHISM_hgrid_face_nodes connectivity. Mixed triangle/quad
//	         meshes appear as a (face, 4) array with a fill value in the
//	         fourth column; quads are split into triangles.
//	ADCIRC   x/y node coordinates with an element connectivity array.
//	         ADCIRC files additionally carry scalar variables (neta, nvel,
//	         max_nvdll, max_nvell) that clash with dimensions of the same
//	         name; the reader drops them before decoding.
//	TELEMAC  SELAFIN-derived output with ikle2 (2D) or ikle3 (3D)
//	         connectivity.
//	GENERIC  files that already use the canonical names (lon, lat,
//	         triface_nodes); typically files previously written by this
//	         package's exporter.
//
// All solver connectivity is 1-based Fortran indexing except GENERIC, which
// is 0-based. Normalization always emits 0-based indices.
//
// # Variable Renames
//
// Besides the mesh variables, a handful of well-known data variables are
// renamed so that every solver exposes the same names (e.g. ADCIRC zeta →
// elev, zeta_max → elev_max). Unrecognized variables are carried through
// under their original name as long as their dimensions map onto the
// canonical ones.
package normalize
