// Package pipeline runs submitted URLs through validation, threat scoring
// and persistence.
//
// A Pipeline holds an ordered list of Steps that operate on a shared
// model.Analysis. The default chain is ValidateStep, AnalyzeStep and
// SaveStep. BatchProcessor fans a list of URLs out over errgroup with a
// concurrency limit and hands back the analyses in input order, which is
// how both the CLI and the bulk API endpoint process several URLs.
package pipeline
