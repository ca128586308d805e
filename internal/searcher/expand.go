package searcher

import "strings"

// Query expansion compensates for short, ambiguous developer queries by
// appending related technical vocabulary when trigger words or phrases are
// present. The expansion is additive text concatenation, never a rewrite,
// and it is applied unconditionally: re-expanding an already expanded query
// appends the vocabulary again, matching the behavior of the system this
// replaces.

// singleWordExpansions maps one lowercase token to appended vocabulary
var singleWordExpansions = map[string]string{
	"auth":       "authentication login session token credential",
	"login":      "authentication signin session credential",
	"db":         "database query sql connection transaction",
	"database":   "sql query connection transaction schema",
	"api":        "endpoint route handler request response http",
	"http":       "request response handler route server client",
	"config":     "configuration settings environment options",
	"cache":      "memoize lru eviction ttl invalidate",
	"queue":      "worker job task message broker consumer",
	"test":       "assert mock fixture spec unit",
	"error":      "exception failure panic recover handling",
	"log":        "logging logger level output trace debug",
	"parse":      "parser tokenize lexer syntax ast",
	"search":     "query lookup find filter rank relevance",
	"file":       "filesystem path directory read write io",
	"upload":     "file multipart form storage blob",
	"validate":   "validation schema check constraint sanitize",
	"crypto":     "encryption hash cipher key signature",
	"websocket":  "socket realtime connection message push",
	"middleware": "handler interceptor filter pipeline request",
}

// phraseExpansions maps multi-word trigger phrases to appended vocabulary
var phraseExpansions = map[string]string{
	"rate limit":       "throttle quota backoff window bucket",
	"unit test":        "assert mock fixture testcase coverage",
	"error handling":   "exception recover retry wrap propagate",
	"state machine":    "transition status lifecycle terminal event",
	"event loop":       "async callback scheduler task queue",
	"memory leak":      "allocation gc retain release profile",
	"dependency injection": "constructor wiring container provider",
	"connection pool":  "reuse idle acquire release limit",
}

// maxPhraseTokens bounds the sliding window used for phrase triggers
const maxPhraseTokens = 3

// Expand lowercases the query and appends expansion vocabulary for every
// matched trigger, in a single pass over the token stream.
func Expand(query string) string {
	lowered := strings.ToLower(query)
	tokens := strings.Fields(lowered)
	if len(tokens) == 0 {
		return lowered
	}

	var additions []string
	seen := make(map[string]bool)

	for i, token := range tokens {
		if exp, ok := singleWordExpansions[token]; ok && !seen[token] {
			seen[token] = true
			additions = append(additions, exp)
		}

		// Check phrases starting at this token.
		for n := 2; n <= maxPhraseTokens && i+n <= len(tokens); n++ {
			phrase := strings.Join(tokens[i:i+n], " ")
			if exp, ok := phraseExpansions[phrase]; ok && !seen[phrase] {
				seen[phrase] = true
				additions = append(additions, exp)
			}
		}
	}

	if len(additions) == 0 {
		return lowered
	}
	return lowered + " " + strings.Join(additions, " ")
}

// Tokenize splits a lowercased query into tokens. Exposed for scoring,
// which reuses the same tokenization as expansion.
func Tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}
