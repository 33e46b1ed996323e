// Package orchestrator wires the loader → schema decoder → transformer →
// renderer pipeline behind a single Generate call.
package orchestrator
