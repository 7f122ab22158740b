// Package testutil provides shared test helpers for safety-net.
//
// Tests use a real SQLite audit database and a throwaway HOME so config
// and rule discovery never touch the developer's files:
//
//	h := testutil.NewHarness(t)
//	h.WriteRules(testutil.RuleJSON("no-publish", "npm", "publish"))
//	d := testutil.MakeDecision(t, h.DB, testutil.WithReason("blocked"))
package testutil
