// Package pipeline runs one moderation request end to end.
//
// The Orchestrator owns the sequence: lock a working directory, acquire the
// media, gather audio and visual evidence (concurrently unless disabled),
// adjudicate and return a consolidated Result. Acquisition failure ends the
// run with an error result and no downstream calls. Degraded evidence never
// ends a run, and a panic in the audio or visual stage only degrades that
// evidence. A panic while acquiring or adjudicating becomes an error result.
// Run itself never panics and always releases the working directory.
//
// Every collaborator is passed in through Options; the package keeps no
// global state.
package pipeline
