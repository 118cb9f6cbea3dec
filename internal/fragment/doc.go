// Package fragment swaps the artist results on a page without reloading it.
//
// Sort links inside .sort-menu and the #filter-form form both end in the same
// routine: GET the results URL with X-Requested-With: XMLHttpRequest, parse
// the response as HTML, find the .artists container in it, and replace the
// live container's content with it. A response without the container leaves
// the page alone. A failed request is logged and also leaves the page alone.
//
// Responses are applied in the order they arrive, so a slow request can
// overwrite the result of a newer, faster one. WithDiscardStale tags each
// request with a sequence number and drops responses older than the last one
// applied.
package fragment
