// Package model defines the data structures shared by PhishGuard packages.
//
// The main types are:
//   - TargetURL: a validated URL submitted for analysis
//   - Finding and AnalysisResult: the output of the threat engine
//   - Analysis: a URL moving through the pipeline, consumed by report writers
//   - ScanRecord, UserStats and UserProfile: persisted scan history
//
// The types serialize to JSON with the field names used by the HTTP API.
package model
