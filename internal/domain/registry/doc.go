/*
Package registry owns all live connection state for the realtime channel.

Key concepts:
  - Session: one live connection for one principal, with activity
    timestamps. The registry enforces at most one session per principal;
    admitting a new one evicts the old (last connection wins).
  - Scopes: a broadcast targets either a principal's private scope (its
    single live session) or the global admin scope (every admin session).
  - Janitor: a background sweep evicts sessions idle beyond a threshold,
    independent of transport-level disconnect detection.

All state is process-local. A restart loses every session; clients
re-authenticate on reconnect.
*/
package registry
