// SPDX-License-Identifier: GPL-3.0-or-later

package trace

import (
	"strconv"
	"time"
)

// Severity is the severity tag on a [ValidationIssue] (§3).
type Severity string

const (
	SeverityInfo     Severity = "Info"
	SeverityWarning  Severity = "Warning"
	SeverityCritical Severity = "Critical"
)

// ValidationIssue is one finding from the validation pass (§3, §4.10).
type ValidationIssue struct {
	Severity  Severity
	Category  string
	Message   string
	ItemIndex *int
	Timestamp *time.Time
}

// Validate runs the full single-pass validation engine of §4.10 against
// model and its derived structures, returning every issue in chronological
// order (item index as the tie-break for items sharing a timestamp).
func Validate(cfg *AnalysisConfig, model *TraceModel, pairs []Pair, sessions []ChannelSession) []ValidationIssue {
	var issues []ValidationIssue

	_, sessionIssues := reconstructSessions(cfg, model)
	issues = append(issues, sessionIssues...)

	issues = append(issues, model.MalformedItems...)
	issues = append(issues, validatePairs(pairs, model)...)
	issues = append(issues, validateSessionFields(sessions)...)
	issues = append(issues, validateCipherCompliance(cfg, sessions, model)...)
	issues = append(issues, validateItemPatterns(model)...)

	sortValidationIssues(issues)
	return issues
}

// Raw-pattern / free-text checks from §4.10's table, each independent of
// session/pairing reconstruction.
func validateItemPatterns(model *TraceModel) []ValidationIssue {
	var issues []ValidationIssue
	iccidReported := false
	for _, it := range model.Items {
		idx := it.Index
		if tag, ok := findTLVByTag(it.Tlvs, tagLocationStatus); ok {
			if v := tag.Value(it.RawHex); len(v) == 1 {
				switch v[0] {
				case 0x00:
					issues = append(issues, issueAt(SeverityInfo, "Location Status / Normal", idx, it.Timestamp))
				case 0x01:
					issues = append(issues, issueAt(SeverityWarning, "Location Status / Limited", idx, it.Timestamp))
				case 0x02:
					issues = append(issues, issueAt(SeverityWarning, "Location Status / No Service", idx, it.Timestamp))
				}
			}
		}
		if tag, ok := findTLVByTag(it.Tlvs, tagBIPError); ok {
			if v := tag.Value(it.RawHex); len(v) == 2 && v[0] == 0x3A {
				issues = append(issues, ValidationIssue{
					Severity:  SeverityCritical,
					Category:  "BIP Error",
					Message:   "BIP error, cause " + hexByte(v[1]),
					ItemIndex: &idx,
					Timestamp: it.Timestamp,
				})
			}
		}
		if it.Apdu != nil && it.Apdu.Kind == ApduResponse && it.Apdu.SW1 == 0x50 && it.Apdu.SW2 == 0x23 {
			issues = append(issues, issueAt(SeverityCritical, "Status Word", idx, it.Timestamp))
		}
		switch {
		case containsFold(it.Summary, "card powered off"):
			issues = append(issues, issueAt(SeverityInfo, "Card Event", idx, it.Timestamp))
		case containsFold(it.Summary, "cold reset") || containsFold(it.Summary, "refresh") || containsFold(it.Summary, "power on"):
			issues = append(issues, issueAt(SeverityInfo, "Card Event", idx, it.Timestamp))
		}
		if containsFold(it.Summary, "link dropped") || containsFold(it.Summary, "link off") {
			issues = append(issues, issueAt(SeverityCritical, "Channel Status", idx, it.Timestamp))
		}
		if isTerminalResponseType(it.Type) && containsFold(it.Summary, "unexpected") {
			issues = append(issues, issueAt(SeverityInfo, "Trace", idx, it.Timestamp))
		}
		if !iccidReported && it.Apdu != nil && it.Apdu.Kind == ApduResponse {
			if iccid := decodeIccidFromItems(model.Items[:idx+1]); iccid != "" {
				issues = append(issues, issueAt(SeverityInfo, "ICCID Detected", idx, it.Timestamp))
				iccidReported = true
			}
		}
	}
	return issues
}

const (
	tagLocationStatus uint32 = 0x1B
	tagBIPError       uint32 = 0x03
)

func issueAt(sev Severity, category string, idx int, ts *time.Time) ValidationIssue {
	return ValidationIssue{Severity: sev, Category: category, ItemIndex: &idx, Timestamp: ts, Message: category}
}

func hexByte(b byte) string {
	const hexDigits = "0123456789ABCDEF"
	return string([]byte{hexDigits[b>>4], hexDigits[b&0x0F]})
}

func validatePairs(pairs []Pair, model *TraceModel) []ValidationIssue {
	var issues []ValidationIssue
	for _, p := range pairs {
		if p.Status != PairPending {
			continue
		}
		it, ok := model.Item(p.FetchIndex)
		if !ok {
			continue
		}
		idx := p.FetchIndex
		issues = append(issues, ValidationIssue{
			Severity:  SeverityWarning,
			Category:  "UnansweredCommand",
			Message:   "proactive command at item " + strconv.Itoa(idx) + " has no terminal response before end of trace",
			ItemIndex: &idx,
			Timestamp: it.Timestamp,
		})
	}
	return issues
}

func validateSessionFields(sessions []ChannelSession) []ValidationIssue {
	var issues []ValidationIssue
	for _, s := range sessions {
		if !s.HasPort && len(s.IPAddresses) == 0 {
			idx := s.OpenIndex
			issues = append(issues, ValidationIssue{
				Severity:  SeverityInfo,
				Category:  "Channel",
				Message:   "OPEN CHANNEL at item " + strconv.Itoa(idx) + " carries no IP address in its interpretation",
				ItemIndex: &idx,
				Timestamp: s.OpenedAt,
			})
		}
	}
	return issues
}

func validateCipherCompliance(cfg *AnalysisConfig, sessions []ChannelSession, model *TraceModel) []ValidationIssue {
	if len(cfg.ApprovedCipherSuites) == 0 {
		return nil
	}
	var issues []ValidationIssue
	for _, s := range sessions {
		for _, idx := range s.Items {
			it, ok := model.Item(idx)
			if !ok {
				continue
			}
			hello, ok := serverHelloFromPayload(it)
			if !ok {
				continue
			}
			if !cipherApproved(cfg, hello.CipherSuite) {
				i := idx
				issues = append(issues, ValidationIssue{
					Severity:  SeverityWarning,
					Category:  "NonCompliantCipher",
					Message:   "ServerHello at item " + strconv.Itoa(idx) + " chose a cipher suite outside the approved list",
					ItemIndex: &i,
					Timestamp: it.Timestamp,
				})
			}
		}
	}
	return issues
}

func cipherApproved(cfg *AnalysisConfig, suite uint16) bool {
	for _, s := range cfg.ApprovedCipherSuites {
		if s == suite {
			return true
		}
	}
	return false
}

func sortValidationIssues(issues []ValidationIssue) {
	for i := 1; i < len(issues); i++ {
		for j := i; j > 0 && issueLess(issues[j], issues[j-1]); j-- {
			issues[j], issues[j-1] = issues[j-1], issues[j]
		}
	}
}

func issueLess(a, b ValidationIssue) bool {
	at, aok := issueTime(a)
	bt, bok := issueTime(b)
	switch {
	case aok && bok && !at.Equal(bt):
		return at.Before(bt)
	case aok != bok:
		return aok
	}
	ai, bi := issueIndex(a), issueIndex(b)
	return ai < bi
}

func issueTime(i ValidationIssue) (time.Time, bool) {
	if i.Timestamp == nil {
		return time.Time{}, false
	}
	return *i.Timestamp, true
}

func issueIndex(i ValidationIssue) int {
	if i.ItemIndex == nil {
		return -1
	}
	return *i.ItemIndex
}
