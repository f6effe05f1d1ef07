// Package synth builds the combined source document for a set of fetched
// pages and asks the language model to write a cited report from it.
//
// Sources are numbered with model.NumberSources so that the "[source N]"
// markers in the report line up with the numbering used by the citation
// package.
package synth
