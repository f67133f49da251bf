// Package render turns a climogram into a presentation document: a dual-axis
// combo chart configuration and the map layers that accompany it.
//
// Nothing here draws. The document carries the configuration a chart or map
// client needs, in the option names those clients use.
package render
