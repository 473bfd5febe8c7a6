// Package worker implements the stateless worker loop: claim a queued job,
// run its executor under a heartbeat, and persist exactly one of the three
// outcomes (done, yield, failed). It also houses the retry backoff policy.
package worker
