// Package videogen turns an ordered list of prompts into an ordered set of
// local video segments.
//
// Backend is the uniform asynchronous-job contract every video service is
// adapted to: Submit returns either a ready artifact or a handle, Poll reports
// completion, Fetch downloads bytes. Backends never retry.
//
// Generator drives one prompt to a local file: submit, bounded poll loop,
// fetch, or an opt-in synthetic placeholder. Sequencer runs the Generator
// over all prompts strictly in order and stops at the first failure.
package videogen
