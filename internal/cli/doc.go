// Package cli implements the command-line interface for groupie-tracker.
//
// The cli package provides the Cobra-based CLI that plays the browser's part
// for a Groupie Tracker site. The map command geocodes an artist page's concert
// locations and prints the markers (text/JSON/GeoJSON) or a Leaflet page. The
// sort and filter commands load a results page, perform the action as a
// fragment request and print the updated results container.
package cli
