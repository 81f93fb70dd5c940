// Package tui implements the terminal chat interface.
//
// # Architecture
//
// The interface is a Bubble Tea program with three panes: a sidebar
// listing conversations (most recent first, with multi-select for bulk
// delete), a viewport showing the active conversation's transcript, and a
// textarea for the next question.
//
// The model holds no conversation state of its own. It subscribes to the
// controller's snapshot stream and re-renders from whatever arrives; every
// key press translates into a controller command. Connection state changes
// from the transport feed the header indicator the same way.
//
// # Rendering
//
// Assistant messages are Markdown and render through glamour. Content
// inside <think> tags is the model's internal reasoning: it is folded to a
// one-line marker by default and expanded with ctrl+t.
//
// # Key bindings
//
//	enter    send the question (input pane) / open conversation (sidebar)
//	tab      switch between input and sidebar
//	ctrl+n   new conversation
//	esc      stop the in-flight response
//	space    mark a conversation (sidebar)
//	ctrl+d   delete marked conversations (sidebar)
//	ctrl+e   export the active conversation as Markdown
//	ctrl+t   show or hide model reasoning
//	ctrl+c   quit
//
// On an empty conversation the digit keys 1-9 send one of the configured
// recommended questions.
package tui
