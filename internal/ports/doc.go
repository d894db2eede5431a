// Package ports defines the interfaces (ports) that connect the pipeline core
// to infrastructure adapters.
//
// # Port Interfaces
//
//   - [Runtime], [Handle], [Buffer]: the component runtime (OpenMAX IL on the
//     device, a simulation in tests)
//   - [EventHandler]: receiver of asynchronous runtime notifications
//   - [DisplaySizer]: display geometry discovery
//   - [Sleeper]: the wait primitive used between polls
//   - [EventEmitter]: observer of transitions, flushes and runtime events
//   - [Logger]: structured logging abstraction
//
// # Usage
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement them with cgo,
// framebuffer ioctls, zerolog and so on. Tests use the simulated runtime.
package ports
