// Package adjudication asks the judge model for the final verdict.
//
// The engine builds one prompt from the rule set, the audio transcript and
// the visual reports, makes exactly one logical completion call and parses
// the reply. Only an explicit APPROVED status approves a video; anything else
// the model says is a rejection. When the call itself fails the verdict is
// UNKNOWN so that callers can tell an unavailable judge from a negative one.
package adjudication
