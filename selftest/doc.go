// Package selftest exercises every registered route once with generated
// parameters and reports per-route results.
//
// Each route not marked SkipSelfTest is dispatched with its SelfTestParams
// under its TestTimeout. Presentational routes stay pending until their
// surface closes, so the runner dismisses the shown surface through an
// optional Dismisser after a settle delay.
//
// Usage:
//
//	r := selftest.New(router.Registry(), router, func(o *selftest.Options) {
//	    o.Dismisser = bridge
//	})
//	results := r.Run(ctx)
//	summary := selftest.Summarize(results)
package selftest
