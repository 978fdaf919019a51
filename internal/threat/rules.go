package threat

import "regexp"

// Category groups rules by the detector that applies them.
type Category string

// Detector categories in evaluation order.
const (
	CategoryKeyword    Category = "keyword"
	CategoryStructure  Category = "structure"
	CategoryProtocol   Category = "protocol"
	CategoryIPLiteral  Category = "ip_literal"
	CategoryTLD        Category = "tld"
	CategoryCredential Category = "credential"
	CategoryHomograph  Category = "homograph"
)

// Scope limits where in the URL a keyword may match.
type Scope int

const (
	// ScopeAnywhere matches the keyword anywhere in the normalized URL.
	ScopeAnywhere Scope = iota
	// ScopeExceptOwnDomain matches anywhere except as the brand's own
	// domain: "google" does not fire for google.com or google.co.uk but does
	// for google-login.com.
	ScopeExceptOwnDomain
)

// String returns the scope name used in rule listings.
func (s Scope) String() string {
	if s == ScopeExceptOwnDomain {
		return "except-own-domain"
	}
	return "anywhere"
}

// Rule is one weighted detection rule.
type Rule struct {
	Category Category
	// Pattern is the substring, suffix or expression the detector looks for.
	// Detectors with a fixed check leave it empty.
	Pattern string
	Weight  int
	Message string
	Scope   Scope
}

// keywordRules is checked in order; every matching row adds its weight.
var keywordRules = []Rule{
	{CategoryKeyword, "bitly", 10, "URL shortener detected", ScopeExceptOwnDomain},
	{CategoryKeyword, "verify", 20, "Verification keyword", ScopeAnywhere},
	{CategoryKeyword, "confirm", 20, "Confirmation keyword", ScopeAnywhere},
	{CategoryKeyword, "urgent", 15, "Urgency keyword", ScopeAnywhere},
	{CategoryKeyword, "update", 15, "Update keyword", ScopeAnywhere},
	{CategoryKeyword, "click", 25, "Call-to-action keyword", ScopeAnywhere},
	{CategoryKeyword, "paypal", 15, "PayPal mimic", ScopeExceptOwnDomain},
	{CategoryKeyword, "amazon", 15, "Amazon mimic", ScopeExceptOwnDomain},
	{CategoryKeyword, "apple", 15, "Apple mimic", ScopeExceptOwnDomain},
	{CategoryKeyword, "microsoft", 15, "Microsoft mimic", ScopeExceptOwnDomain},
	{CategoryKeyword, "google", 15, "Google mimic", ScopeExceptOwnDomain},
	{CategoryKeyword, "bank", 20, "Banking keyword", ScopeExceptOwnDomain},
	{CategoryKeyword, "account", 18, "Account keyword", ScopeExceptOwnDomain},
	{CategoryKeyword, "security", 10, "Security keyword", ScopeAnywhere},
	{CategoryKeyword, "alert", 18, "Alert keyword", ScopeAnywhere},
}

var (
	traversalRule   = Rule{Category: CategoryStructure, Pattern: "..", Weight: 25, Message: "Suspicious URL structure"}
	doubleSlashRule = Rule{Category: CategoryStructure, Pattern: "//", Weight: 20, Message: "Double slash detected"}

	protocolRule = Rule{Category: CategoryProtocol, Pattern: "https", Weight: 15, Message: "No HTTPS encryption"}

	ipLiteralRule = Rule{Category: CategoryIPLiteral, Pattern: `\d+\.\d+\.\d+\.\d+`, Weight: 30, Message: "Using IP address instead of domain"}

	tldRule = Rule{Category: CategoryTLD, Weight: 20, Message: "Suspicious top-level domain"}

	credentialRule = Rule{Category: CategoryCredential, Weight: 25, Message: "Credential harvesting pattern"}

	homographRule = Rule{Category: CategoryHomograph, Pattern: "01", Weight: 20, Message: "Possible homograph attack"}
)

// ipLiteralPattern does not validate octet ranges.
var ipLiteralPattern = regexp.MustCompile(ipLiteralRule.Pattern)

// suspiciousTLDs are matched as suffixes of the whole normalized URL.
var suspiciousTLDs = []string{".tk", ".ml", ".ga", ".cf", ".xyz", ".top", ".download"}

// credentialPatterns raise a single finding however many of them match.
var credentialPatterns = []string{"login", "signin", "password", "verify-account", "reset"}

// homographThreshold is the digit count that must be exceeded in the authority.
const homographThreshold = 2

// Rules returns a copy of every rule in evaluation order.
// TLD and credential rules are expanded to one entry per pattern.
func Rules() []Rule {
	rules := make([]Rule, 0, len(keywordRules)+len(suspiciousTLDs)+len(credentialPatterns)+5)
	rules = append(rules, keywordRules...)
	rules = append(rules, traversalRule, doubleSlashRule, protocolRule, ipLiteralRule)
	for _, tld := range suspiciousTLDs {
		r := tldRule
		r.Pattern = tld
		rules = append(rules, r)
	}
	for _, p := range credentialPatterns {
		r := credentialRule
		r.Pattern = p
		rules = append(rules, r)
	}
	return append(rules, homographRule)
}
