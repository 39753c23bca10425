// Package dag orders addons by their declared dependencies. The order it
// produces is the order in which addon patches are layered.
package dag
