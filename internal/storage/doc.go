// Package storage reads the tracked-record reference set that the caller
// supplies for duplicate classification.
//
// The file is JSON, either a bare list of records or an object with a
// "records" list. Nothing is ever written back to it.
package storage
