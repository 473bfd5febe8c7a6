// Package store defines persistence abstractions shared by all storage
// implementations: the DBTX interface and the common error vocabulary that
// upper layers match on with errors.Is.
package store
