// Package moderation holds the data model shared by every pipeline stage:
// the request, the acquired media handle, both evidence streams, the verdict,
// and the consolidated result returned to callers.
//
// Values are produced once by the stage that owns them and never mutated
// afterwards. Result can only be built through SuccessResult or ErrorResult so
// a result without a status cannot exist.
package moderation
