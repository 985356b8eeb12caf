// Package queue bounds how many synthesis processes run at once per engine.
// Engines without a configured limit are admitted immediately.
package queue
