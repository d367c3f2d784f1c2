// Package engine implements the widget lifecycle: it renders server-supplied
// widget instructions on a surface, wires each widget's events according to
// its category and the confirmation mode of its item, and reports responses
// through a transport either one widget at a time or as a validated batch.
//
// Every operation runs to completion under the engine lock. Surfaces must
// deliver events through HandleEvent from outside their Mount and Detach
// calls.
package engine
