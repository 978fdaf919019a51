// Package threat scores URLs for phishing indicators.
//
// An Engine runs an ordered list of Detectors over a normalized URL,
// sums the weights of their findings and classifies the result. Every
// detector is a pure function of the URL string: nothing is fetched and
// nothing is resolved, so an Engine can be shared by any number of
// goroutines.
//
// Detector order matters. The threat list keeps only the first three
// distinct messages, so the order decides which messages a caller sees.
package threat
