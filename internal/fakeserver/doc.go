// Package fakeserver is a stand-in tutor backend for development and tests.
//
// It speaks the real WebSocket protocol: a question command produces a
// task_started event followed by an llm_response stream (start, one
// message event per word, end), and a stop command is acknowledged with
// command_sent before the stream terminates with an interrupted event.
//
// Replies are canned. The default echoes the question back inside a short
// Markdown study plan, which gives the interface realistic formatting to
// render; tests swap in their own ReplyFunc. A configurable FragmentDelay
// makes streaming visibly incremental when driven by cmd/fake-tutor.
package fakeserver
