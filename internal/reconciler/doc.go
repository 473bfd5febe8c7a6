// Package reconciler implements the out-of-band sweep that audits jobs stuck
// in processing: it fails the ones whose worker died, and — where external
// ground truth proves the work finished — marks them done instead.
package reconciler
