// Package service contains the application-level use cases that sit between
// the HTTP layer and the stores. Services validate input against business
// rules (registered job types, payload shape and size) before anything is
// persisted, and translate store errors into conditions the API layer can
// map to status codes.
package service
