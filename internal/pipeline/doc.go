// Package pipeline runs the video templates on the transcoding engine.
//
// Metropoles and Choquei are single invocations: the user's clips, the
// pre-rendered overlay raster and the texture loop go through one filter
// graph. Classico is a sequence of invocations driven by an explicit state
// machine:
//
//	Init -> IntroRendered -> MainRendered -> TrailerRendered -> Concatenated
//	     -> AudioAttached | AudioFallback -> Done
//
// Every artifact a run writes to the engine workspace is registered in a
// [Scope] and removed before the run returns, whatever the outcome.
// Progress is reported as a non-decreasing fraction in [0,1].
package pipeline
