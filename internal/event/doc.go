// Package event provides a pub-sub event bus for decoupled observation of a
// running piece.
//
// The conduct engine publishes events as it works; the TUI, log sinks, and
// tests subscribe without the engine knowing they exist. Concurrent subtask
// output travels as per-subtask progress events, so one bus carries any
// number of interleaved streams.
//
// # Main Types
//
//   - [Event]: Interface that all events must implement, providing EventType() and Timestamp()
//   - [Bus]: Synchronous pub-sub event dispatcher with thread-safe operations
//   - [Handler]: Function type for event handlers (func(Event))
//
// # Event Categories
//
// Run lifecycle:
//   - [RunStartedEvent]: Emitted when a piece run begins
//   - [RunFinishedEvent]: Emitted when a run reaches COMPLETE or ABORT
//
// Movement execution:
//   - [MovementStartedEvent]: Emitted when a movement begins
//   - [MovementFinishedEvent]: Emitted when its invocation settles
//   - [TransitionEvent]: Emitted when the next movement is resolved
//
// Team-leader fan-out:
//   - [SubtaskStartedEvent]: Emitted when a subtask begins
//   - [SubtaskProgressEvent]: Carries one output chunk, keyed by subtask id
//   - [SubtaskFinishedEvent]: Emitted when a subtask settles
//
// Report artifacts:
//   - [ReportArtifactEvent]: Emitted when files land in the report directory
//
// Health monitoring:
//   - [HealthEvaluatedEvent]: Emitted after each post-movement health check
//
// # Thread Safety
//
// The [Bus] type is safe for concurrent use. Multiple goroutines can publish
// and subscribe concurrently. Handlers are called synchronously and protected
// against panics - a panicking handler will not prevent other handlers from
// being called.
//
// # Basic Usage
//
//	bus := event.NewBus()
//
//	// Subscribe to specific event types
//	bus.Subscribe("subtask.progress", func(e event.Event) {
//	    p := e.(event.SubtaskProgressEvent)
//	    render(p.SubtaskID, p.Chunk)
//	})
//
//	// Subscribe to all events (useful for logging)
//	bus.SubscribeAll(func(e event.Event) {
//	    log.Printf("Event: %s at %v", e.EventType(), e.Timestamp())
//	})
//
//	// Publish events
//	bus.Publish(event.NewMovementStartedEvent("review", "reviewer", 3))
//
//	// Unsubscribe when done
//	id := bus.Subscribe("run.finished", handler)
//	bus.Unsubscribe(id)
//
// # Event Type Naming Convention
//
// Event types follow the pattern "category.action":
//   - run.started, run.finished
//   - movement.started, movement.finished, movement.transition
//   - subtask.started, subtask.progress, subtask.finished
//   - report.artifact
//   - health.evaluated
package event
