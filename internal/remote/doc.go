// Package remote implements a remote extension repository over an
// HTTP/JSON API.
//
// Endpoints, relative to the repository base URL:
//
//	GET /extensions/{id}/versions?start={offset}&number={limit}
//	GET /extensions/{id}/versions/{version}
//
// Version pages report their own offset and total hit count, which are
// passed to callers unchanged.
package remote
