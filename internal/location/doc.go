// Package location reads the tour locations an artist page embeds for the map.
//
// The server writes a JSON array of {"city", "dates"} objects into the text
// content of the #locations-data element. The list is read once per page and
// never modified.
package location
