// Package condexpr compiles boolean expression strings into condition
// trees for pipeline definitions.
//
// It uses the expr-lang/expr parser to read the expression; nothing is
// ever evaluated here. Each syntactic form maps onto exactly one
// condition variant:
//
//   - Comparisons: ==, >, >=, <, <=
//   - Membership: value in ["a", "b"]
//   - Negation: not expr (or !expr)
//   - Disjunction: a or b (or ||); chains flatten into a single Or
//
// Identifiers resolve against a caller-supplied Scope mapping names to
// parameters, execution variables, step property roots, or plain values.
// Member access descends into property roots:
//
//	train.Metrics.AUC >= min_auc
//	region in ["us-east-1", "eu-west-1"]
//	not (mode == "dry-run")
//	env == "prod" or env == "staging"
//
// The left side of a comparison (and the tested value of a membership)
// must resolve to a deferred reference; literals belong on the right.
//
// Conjunction is deliberately absent: a condition step's Conditions list
// already requires every entry to hold, so "and" is rejected with a
// suggestion to split the expression or rewrite it with not/or.
package condexpr
