// Package render turns normalized datasets into PNG map views.
//
// Three map renderers are provided: Raster (field values interpolated across
// the triangulation), Wireframe (element edges) and Nodes (vertex scatter).
// All three draw in Web Mercator over a rectangular viewport, so the output
// lines up pixel-for-pixel with standard slippy-map basemap tiles and the
// renders can be composited over them.
//
// Rasterization walks every triangle, projects its vertices to pixel space
// and fills it with an edge-function scan, linearly interpolating the node
// values (Gouraud shading). Pixels outside the mesh, or inside elements with
// missing data, stay fully transparent.
//
// Timeseries turns a per-node series into a conventional curve plot.
package render
