// Package filtergraph builds ffmpeg filter graphs and argument lists for the
// video templates. Everything here is pure string construction.
//
// Metropoles and Choquei are single invocations with one filter_complex
// graph. Classico is five invocations (intro, main, trailer, concat, audio)
// whose argument lists are built by the *Args functions.
package filtergraph
