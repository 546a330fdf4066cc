// Package moderation is the pure keyword gate in front of reply generation.
// No state, no I/O: verdicts are substring matches over fixed term lists.
package moderation

import "strings"

// Result carries both verdicts for one message. The flags are independent:
// a message can be disallowed and show at-risk language at the same time.
type Result struct {
	Disallowed      bool
	DisallowedTerms []string
	RGRisk          bool
	RGTerms         []string
}

var disallowedKeywords = []string{
	"betting strategy", "how to win", "guaranteed win", "sure bet",
	"fix the game", "exploit", "system exploit", "bonus abuse",
	"bypass kyc", "fake id", "evade limits", "money laundering",
	"chargeback", "refund hack", "carding", "multi account",
	"script to win", "cheat", "rig the game", "insider odds",
}

var rgKeywords = []string{
	"addicted", "can't stop", "cant stop", "lost everything",
	"self exclude", "self-exclude", "problem", "gambling too much",
	"compulsive", "problem gambling", "help me stop",
}

var sensitiveHints = []string{
	"loss", "lost", "debt", "addict", "stop gambling", "self exclude",
}

func Moderate(text string) Result {
	t := strings.ToLower(text)

	var res Result
	for _, k := range disallowedKeywords {
		if strings.Contains(t, k) {
			res.DisallowedTerms = append(res.DisallowedTerms, k)
		}
	}
	for _, k := range rgKeywords {
		if strings.Contains(t, k) {
			res.RGTerms = append(res.RGTerms, k)
		}
	}
	res.Disallowed = len(res.DisallowedTerms) > 0
	res.RGRisk = len(res.RGTerms) > 0
	return res
}

func RefusalMessage() string {
	return "Sorry, I can't assist with strategies, exploits, or anything that increases gambling intensity. " +
		"I can help with account access, KYC, deposits/withdrawals, bonus terms (per policy), troubleshooting, " +
		"responsible gaming tools, or connecting you with human support. " +
		"If you feel gambling is becoming a problem, we can help you set limits or self-exclude."
}

// ShouldAddFooter reports whether the responsible-gaming footer belongs on a
// reply. True whenever the moderation pass flagged risk, and also when the
// raw text carries a sensitivity hint the keyword lists are too narrow for.
func ShouldAddFooter(text string, rgRisk bool) bool {
	if rgRisk {
		return true
	}
	t := strings.ToLower(text)
	for _, k := range sensitiveHints {
		if strings.Contains(t, k) {
			return true
		}
	}
	return false
}

func FooterText() string {
	return "If you feel gambling is becoming a problem, we can help you set limits or self-exclude."
}
