// Package geocode resolves free-text place names to coordinates through a
// Nominatim-compatible search API.
//
// Every lookup goes to the service unless the caller attaches a Cache. The
// first candidate returned is the one callers use; an empty result is not an
// error.
package geocode
