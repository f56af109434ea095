/*
Package poll provides the bounded retry-with-backoff primitive used to wait
on external state: pod phases, readiness conditions, namespace existence,
and consensus node platform status.

Every wait is expressed as a Check returning one of three outcomes. Done
stops the loop successfully. Terminal (for example a node reporting
CATASTROPHIC_FAILURE) aborts immediately without consuming the remaining
attempt budget. Everything else (fetch errors, unparseable responses, a pod
that simply is not ready yet) is Transient and retries after the configured
delay.

Attempts are always bounded. A wait of MaxAttempts N with delay D and
per-attempt timeout T blocks at most roughly N*(D+T).
*/
package poll
