// Package domain contains the core types of the camera preview pipeline.
//
// This package is the innermost layer: it knows nothing about cgo, the
// simulated runtime, logging or configuration files. It describes what the
// component runtime speaks (states, commands, events, port descriptors,
// settings and error codes) and how the pipeline classifies failures.
//
// # Entities
//
//   - [State]: lifecycle state of a component (Loaded, Idle, Executing, ...)
//   - [PortDescriptor]: per-port format description (video or image domain)
//   - [Setting]: a typed parameter or config value addressed by [Index]
//   - [Event]: an asynchronous notification delivered by the runtime
//   - [Error]: a fatal pipeline error tagged with one of the error kinds
//   - [Phase]: coarse state of the whole pipeline
package domain
