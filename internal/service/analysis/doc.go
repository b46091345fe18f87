// Package analysis runs the offer analysis end to end.
//
// A run loads a performance snapshot (from an explicit upload or the
// configured source), merges the blacklist layers, executes the rule engine
// and then hands the report to the optional sinks: the report archive and
// the notifiers. The service depends on the interfaces defined in this
// package; implementations live in storage/, repository/postgres/,
// snowflake/ and notify/.
package analysis
