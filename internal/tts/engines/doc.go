// Package engines provides one adapter per synthesis engine. Each adapter
// translates generic parameters into the engine's command line and runs it as
// a subprocess that writes native audio to a file.
package engines
