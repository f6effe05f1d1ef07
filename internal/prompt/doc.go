// Package prompt holds the prompt templates sent to the language model.
//
// Templates are data: the defaults are embedded text/template files and any
// of them can be replaced by a file of the same name in a user directory.
// Rendering is a pure function of its inputs; the current date is passed in
// by the caller.
package prompt
