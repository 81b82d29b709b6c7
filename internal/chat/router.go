// Package chat turns free-text chat messages into structured finance actions.
//
// Every parser here returns an ok flag instead of an error: a miss is an
// expected outcome and the caller renders a help message for it.
package chat

import (
	"regexp"
	"strings"
)

// Intent names the handler a message is dispatched to.
type Intent int

const (
	IntentDefault Intent = iota
	IntentClearChat
	IntentDeleteAll
	IntentDeleteRecent
	IntentCategories
	IntentDateSearch
	IntentSetBudget
)

func (i Intent) String() string {
	switch i {
	case IntentClearChat:
		return "clear_chat"
	case IntentDeleteAll:
		return "delete_all"
	case IntentDeleteRecent:
		return "delete_recent"
	case IntentCategories:
		return "categories"
	case IntentDateSearch:
		return "date_search"
	case IntentSetBudget:
		return "set_budget"
	default:
		return "default"
	}
}

var digitRe = regexp.MustCompile(`\d`)

// HasNumber reports whether text contains at least one digit.
func HasNumber(text string) bool {
	return digitRe.MatchString(text)
}

var (
	clearChatPhrases = []string{
		"clear all chat", "clear chat", "clear previous chat",
		"delete all chat", "delete all chats", "delete chat", "delete chats",
	}
	deleteAllPhrases = []string{
		"delete all transaction", "delete all transactions",
		"clear all transaction", "clear all transactions",
		"remove all transaction", "remove all transactions",
		"clear transaction", "clear transactions",
		"delete transaction", "delete transactions",
	}
	deleteRecentPhrases = []string{
		"clear recent", "delete recent", "remove recent",
		"clear last", "delete last", "remove last",
	}
	categoryPhrases = []string{"categories", "what are the categories"}
	// "on" and "may" are plain substrings, so almost any
	// sentence mentioning "transaction" qualifies.
	dateCues = []string{
		"on", "from",
		"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday",
		"january", "february", "march", "april", "may", "june", "july",
		"august", "september", "october", "november", "december",
		"today", "yesterday", "last week", "this week",
	}
	budgetWords    = []string{"budget", "limit", "allocate", "plan"}
	setBudgetWords = []string{"set budget", "my budget", "budget is", "budget of", "monthly budget"}
	monthWords     = []string{"month", "monthly"}
	currencyWords  = []string{"₹", "rs", "rupees", "inr"}
)

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

type rule struct {
	intent Intent
	match  func(lower, raw string) bool
}

// rules are evaluated in order; the first match wins.
var rules = []rule{
	{IntentClearChat, func(lower, _ string) bool {
		return containsAny(lower, clearChatPhrases) ||
			(strings.Contains(lower, "clear all") && !strings.Contains(lower, "transaction"))
	}},
	{IntentDeleteAll, func(lower, _ string) bool {
		return containsAny(lower, deleteAllPhrases)
	}},
	{IntentDeleteRecent, func(lower, _ string) bool {
		return containsAny(lower, deleteRecentPhrases)
	}},
	{IntentCategories, func(lower, _ string) bool {
		return containsAny(lower, categoryPhrases)
	}},
	{IntentDateSearch, func(lower, _ string) bool {
		return strings.Contains(lower, "transaction") && containsAny(lower, dateCues)
	}},
	{IntentSetBudget, func(lower, raw string) bool {
		number := HasNumber(raw)
		return containsAny(lower, setBudgetWords) ||
			(containsAny(lower, budgetWords) && containsAny(lower, monthWords) && number) ||
			(strings.Contains(lower, "budget") && number && containsAny(lower, currencyWords))
	}},
}

var balanceWords = []string{"balance", "total", "summary", "how much"}

// IsBalanceQuery reports whether a default-flow message asks for the totals.
func IsBalanceQuery(text string) bool {
	return containsAny(strings.ToLower(text), balanceWords)
}

// Route picks the handler for a raw chat message.
func Route(text string) Intent {
	lower := strings.ToLower(text)
	for _, r := range rules {
		if r.match(lower, text) {
			return r.intent
		}
	}
	return IntentDefault
}
