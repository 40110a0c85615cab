// Package http implements the HTTP transport of the reference remote store.
//
// Two entry routes are exposed under /api/entries/: PUT stores a document
// and GET returns it. Ids travel percent-encoded in the path. Device JWT
// authentication, optional HMAC body verification, trace ids, access logging
// and gzip are applied here before requests reach the service layer.
package http
