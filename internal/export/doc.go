// Package export renders conversation transcripts for sharing.
//
// Two formats are supported: Markdown, built directly from the message
// sequence, and HTML, produced by converting that Markdown with goldmark
// and wrapping it in a small self-contained page. Assistant messages are
// already Markdown (the tutor backend streams Markdown fragments), so they
// pass through verbatim.
//
// WriteFile handles the filesystem side: it creates the export directory,
// derives a collision-free filename from the conversation title and the
// export time, and writes the transcript.
package export
