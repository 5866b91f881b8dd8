// Package event provides the event record shared by every source, date
// normalization for the Italian listings, and the identity rules used to
// decide whether two records describe the same real-world event.
//
// Records carry the literal date text they were parsed from (RawDate) so a
// listing can be traced back to the page it came from.
package event
