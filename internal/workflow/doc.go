// Package workflow runs one episode through the production stages.
//
// A run walks LoadHistory, GenerateStory, GenerateVideos and Publish, and
// always finishes in SaveHistory, which appends exactly one record to the
// continuity store whether the run succeeded or failed. The transition table
// lives in next; stage handlers only report success or a classified error.
//
// The Manager owns no state between runs. Every collaborator (store, story
// generator, video producer, publisher, notifier) is injected so tests can
// drive each scenario with in-memory doubles.
package workflow
