// Command reelcast produces animated short episodes from the command line.
//
// `reelcast run` executes one episode workflow: it reads the continuity
// history, writes a story, renders and assembles the video segments,
// uploads the result and records the outcome. The remaining commands inspect
// history, check the environment, prune old run artifacts and exercise the
// upload and notification integrations in isolation.
package main
