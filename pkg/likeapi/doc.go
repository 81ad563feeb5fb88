// Package likeapi talks to the site's like endpoints.
//
// Client implements optimistic.Transport and Beacon implements
// optimistic.Beacon for one resource:
//
//	POST {base}/{id}/add-like
//	POST {base}/{id}/remove-like
//
// Every request runs in an OpenTelemetry span and carries the W3C trace
// context of its caller.
package likeapi
