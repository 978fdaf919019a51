package threat

import (
	"regexp"
	"strings"

	"github.com/nao1215/phishguard/internal/model"
)

// Detector inspects one URL and reports zero or more findings.
// Implementations must not keep per-call state.
type Detector interface {
	// Name returns the detector name for logging and reporting.
	Name() string
	// Category returns the rule category the detector applies.
	Category() Category
	// Detect returns findings in the order they were triggered.
	Detect(u URL) []model.Finding
}

func newFinding(r Rule) model.Finding {
	return model.Finding{
		Category: string(r.Category),
		Weight:   r.Weight,
		Message:  r.Message,
	}
}

// KeywordDetector matches the keyword table against the URL.
type KeywordDetector struct {
	rules []Rule
}

// NewKeywordDetector creates a KeywordDetector using the built-in table.
func NewKeywordDetector() *KeywordDetector {
	return &KeywordDetector{rules: keywordRules}
}

// Name returns the detector name.
func (d *KeywordDetector) Name() string { return "keyword" }

// Category returns the detector category.
func (d *KeywordDetector) Category() Category { return CategoryKeyword }

// Detect emits one finding per matching row, in table order.
func (d *KeywordDetector) Detect(u URL) []model.Finding {
	var findings []model.Finding
	for _, r := range d.rules {
		target := u.String()
		if r.Scope == ScopeExceptOwnDomain {
			target = u.withoutOwnDomain(r.Pattern)
		}
		if strings.Contains(target, r.Pattern) {
			findings = append(findings, newFinding(r))
		}
	}
	return findings
}

// StructureDetector flags path traversal and embedded double slashes.
type StructureDetector struct{}

// NewStructureDetector creates a StructureDetector.
func NewStructureDetector() *StructureDetector {
	return &StructureDetector{}
}

// Name returns the detector name.
func (d *StructureDetector) Name() string { return "structure" }

// Category returns the detector category.
func (d *StructureDetector) Category() Category { return CategoryStructure }

// Detect checks for ".." and for more than one "//". The checks are independent.
func (d *StructureDetector) Detect(u URL) []model.Finding {
	s := u.String()
	var findings []model.Finding
	if strings.Contains(s, traversalRule.Pattern) {
		findings = append(findings, newFinding(traversalRule))
	}
	if strings.Count(s, doubleSlashRule.Pattern) > 1 {
		findings = append(findings, newFinding(doubleSlashRule))
	}
	return findings
}

// ProtocolDetector flags URLs that do not use HTTPS.
type ProtocolDetector struct{}

// NewProtocolDetector creates a ProtocolDetector.
func NewProtocolDetector() *ProtocolDetector {
	return &ProtocolDetector{}
}

// Name returns the detector name.
func (d *ProtocolDetector) Name() string { return "protocol" }

// Category returns the detector category.
func (d *ProtocolDetector) Category() Category { return CategoryProtocol }

// Detect reports a finding unless the normalized URL starts with "https".
func (d *ProtocolDetector) Detect(u URL) []model.Finding {
	if strings.HasPrefix(u.String(), protocolRule.Pattern) {
		return nil
	}
	return []model.Finding{newFinding(protocolRule)}
}

// IPLiteralDetector flags dotted-quad addresses anywhere in the URL.
type IPLiteralDetector struct {
	pattern *regexp.Regexp
}

// NewIPLiteralDetector creates an IPLiteralDetector.
func NewIPLiteralDetector() *IPLiteralDetector {
	return &IPLiteralDetector{pattern: ipLiteralPattern}
}

// Name returns the detector name.
func (d *IPLiteralDetector) Name() string { return "ip-literal" }

// Category returns the detector category.
func (d *IPLiteralDetector) Category() Category { return CategoryIPLiteral }

// Detect reports at most one finding.
func (d *IPLiteralDetector) Detect(u URL) []model.Finding {
	if !d.pattern.MatchString(u.String()) {
		return nil
	}
	return []model.Finding{newFinding(ipLiteralRule)}
}

// TLDDetector flags URLs ending in a top-level domain popular with phishing kits.
// The suffix test runs on the whole URL, so a path ending in ".top" also matches.
type TLDDetector struct {
	suffixes []string
}

// NewTLDDetector creates a TLDDetector.
func NewTLDDetector() *TLDDetector {
	return &TLDDetector{suffixes: suspiciousTLDs}
}

// Name returns the detector name.
func (d *TLDDetector) Name() string { return "tld" }

// Category returns the detector category.
func (d *TLDDetector) Category() Category { return CategoryTLD }

// Detect reports at most one finding.
func (d *TLDDetector) Detect(u URL) []model.Finding {
	s := u.String()
	for _, suffix := range d.suffixes {
		if strings.HasSuffix(s, suffix) {
			return []model.Finding{newFinding(tldRule)}
		}
	}
	return nil
}

// CredentialDetector flags URLs that look like credential collection pages.
type CredentialDetector struct {
	patterns []string
}

// NewCredentialDetector creates a CredentialDetector.
func NewCredentialDetector() *CredentialDetector {
	return &CredentialDetector{patterns: credentialPatterns}
}

// Name returns the detector name.
func (d *CredentialDetector) Name() string { return "credential" }

// Category returns the detector category.
func (d *CredentialDetector) Category() Category { return CategoryCredential }

// Detect reports one finding regardless of how many patterns match.
func (d *CredentialDetector) Detect(u URL) []model.Finding {
	s := u.String()
	for _, p := range d.patterns {
		if strings.Contains(s, p) {
			return []model.Finding{newFinding(credentialRule)}
		}
	}
	return nil
}

// HomographDetector flags authorities stuffed with the digits 0 and 1,
// which stand in for the letters o and l.
type HomographDetector struct {
	digits    string
	threshold int
}

// NewHomographDetector creates a HomographDetector.
func NewHomographDetector() *HomographDetector {
	return &HomographDetector{digits: homographRule.Pattern, threshold: homographThreshold}
}

// Name returns the detector name.
func (d *HomographDetector) Name() string { return "homograph" }

// Category returns the detector category.
func (d *HomographDetector) Category() Category { return CategoryHomograph }

// Detect reports at most one finding.
func (d *HomographDetector) Detect(u URL) []model.Finding {
	authority := u.Authority()
	for _, digit := range d.digits {
		if strings.Count(authority, string(digit)) > d.threshold {
			return []model.Finding{newFinding(homographRule)}
		}
	}
	return nil
}
