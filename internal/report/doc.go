// Package report renders analysis results for people and tools.
//
// SimpleWriter prints a terminal report, JSONWriter emits a machine-readable
// document and MarkdownWriter produces a shareable report with a mermaid
// status chart. All of them implement Writer and can be combined with
// MultiWriter. HistoryWriter prints stored scans and user statistics.
package report
