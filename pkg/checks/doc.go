// Package checks holds oasgate's startup consistency checks.
//
// Run them once, after every route is registered and before the server
// starts accepting traffic:
//
//	if err := checks.Startup(reg, router); err != nil {
//	    log.Fatal(err)
//	}
//
// A failure means the spec and the implemented routes have drifted apart;
// treat it as a configuration bug. Both checks gather every violation
// before failing, so one run reports the full drift.
package checks
