// Package cli is the interactive command-line front end of the accounts API.
// It keeps one signed-in session, persisted through session.Store, and maps
// each REPL command onto one API call.
package cli
