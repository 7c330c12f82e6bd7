// Package lister builds the "list services" diagnostic.
//
// A run reads the host's service registry (domain -> service -> description)
// through a read-only accessor, projects every domain down to the sorted list
// of its service names, and hands the result to a one-shot event sink as a
// single ha_diag_result event. Rendering the payload is the consumer's job.
package lister
