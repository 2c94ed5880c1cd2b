package guardrail

import (
	"strings"
)

// Fixed vocabulary for the career-relevance decision. Matching is plain
// substring/word lookup over normalized text; this is a routing heuristic,
// not NLP.
var (
	careerKeywords = []string{
		"job", "jobs", "career", "careers", "resume", "cv", "interview",
		"interviews", "salary", "promotion", "skill", "skills", "mentor",
		"mentors", "mentorship", "internship", "linkedin", "networking",
		"hiring", "recruiter", "recruiting", "application", "apply",
		"profession", "professional", "workplace", "employer", "employee",
		"leadership", "negotiation", "portfolio", "qualification",
		"certification", "upskill", "reskill", "freelance", "freelancing",
		"coaching", "onboarding", "layoff", "vacancy", "openings",
	}

	careerPhrases = []string{
		"career advice", "career guidance", "career change", "career growth",
		"job search", "cover letter", "professional development",
		"women in tech", "work-life balance", "work life balance",
		"find a mentor", "connect with a mentor", "performance review",
		"job offer", "tech community", "learning path",
	}

	nonCareerTopics = []string{
		"movie", "movies", "film", "films", "music", "song", "songs",
		"entertainment", "celebrity", "celebrities", "tv show", "netflix",
		"recipe", "recipes", "cooking", "pasta", "pizza", "restaurant",
		"sports", "cricket", "football", "basketball", "tennis",
		"video game", "gaming", "weather", "horoscope", "astrology",
		"vacation", "tourism", "sightseeing", "medicine", "diet",
		"workout", "politics", "election", "religion",
	}

	interrogatives = []string{
		"what", "how", "why", "when", "where", "which", "who", "whose",
		"can", "could", "should", "would", "will", "do", "does", "did",
		"is", "are", "am",
	}

	listRequestStarters = []string{
		"list of", "list some", "top ", "show me", "give me a list",
		"suggest some", "recommend some",
	}

	tellMeAboutPrefix = "tell me about"
)

const (
	shortQueryWordLimit = 10

	// An interrogative is treated as asking about a topic only when the
	// topic term shows up this early in the text.
	questionTopicWindow = 6
)

// careerQuery holds the precomputed features a relevance rule may consult.
type careerQuery struct {
	text          string
	wordCount     int
	topic         string // first matching non-career topic, or ""
	hasCareerTerm bool
	question      bool // starts with an interrogative
	topicAsked    bool // topic appears in the question's opening words
	listRequest   bool
}

type relevance int

const (
	relevanceUndecided relevance = iota
	relevanceAccept
	relevanceReject
)

// careerRules is the ordered decision policy. Earlier rules win; a rule
// returning relevanceUndecided passes the query on.
var careerRules = []struct {
	name string
	eval func(q careerQuery) relevance
}{
	{"reject-short-off-topic", func(q careerQuery) relevance {
		if q.topic != "" && q.wordCount < shortQueryWordLimit {
			return relevanceReject
		}
		return relevanceUndecided
	}},
	{"reject-off-topic-list", func(q careerQuery) relevance {
		if q.listRequest && q.topic != "" && !q.hasCareerTerm {
			return relevanceReject
		}
		return relevanceUndecided
	}},
	{"reject-tell-me-about-topic", func(q careerQuery) relevance {
		if strings.HasPrefix(q.text, tellMeAboutPrefix) && q.topic != "" && !q.hasCareerTerm {
			return relevanceReject
		}
		return relevanceUndecided
	}},
	{"accept-career-term", func(q careerQuery) relevance {
		if q.hasCareerTerm {
			return relevanceAccept
		}
		return relevanceUndecided
	}},
	{"accept-open-question", func(q careerQuery) relevance {
		if q.question && !q.topicAsked {
			return relevanceAccept
		}
		return relevanceUndecided
	}},
	{"accept-career-list", func(q careerQuery) relevance {
		if q.listRequest && q.hasCareerTerm {
			return relevanceAccept
		}
		return relevanceUndecided
	}},
}

// Career reports whether normalized text is a career-related query. The
// default is reject: anything no rule claims gets the fixed redirection
// message from the caller.
func Career(text string) bool {
	q := parseCareerQuery(Normalize(text))
	if q.text == "" {
		return false
	}
	for _, rule := range careerRules {
		switch rule.eval(q) {
		case relevanceAccept:
			return true
		case relevanceReject:
			return false
		}
	}
	return false
}

func parseCareerQuery(text string) careerQuery {
	words := strings.Fields(text)
	q := careerQuery{
		text:      text,
		wordCount: len(words),
	}
	q.topic = firstNonCareerTopic(text)
	q.hasCareerTerm = hasCareerTerm(text, words)
	if len(words) > 0 {
		first := strings.Trim(words[0], "'\",.?!")
		for _, iw := range interrogatives {
			if first == iw || strings.HasPrefix(first, iw+"'") {
				q.question = true
				break
			}
		}
	}
	if q.question && q.topic != "" {
		opening := words
		if len(opening) > questionTopicWindow {
			opening = opening[:questionTopicWindow]
		}
		q.topicAsked = containsWord(strings.Join(opening, " "), q.topic)
	}
	for _, starter := range listRequestStarters {
		if strings.Contains(text, starter) {
			q.listRequest = true
			break
		}
	}
	return q
}

func firstNonCareerTopic(text string) string {
	for _, topic := range nonCareerTopics {
		if containsWord(text, topic) {
			return topic
		}
	}
	return ""
}

func hasCareerTerm(text string, words []string) bool {
	for _, phrase := range careerPhrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	for _, w := range words {
		w = strings.Trim(w, "'\",.?!:;()")
		for _, kw := range careerKeywords {
			if w == kw {
				return true
			}
		}
	}
	return false
}

// containsWord matches term against text on word boundaries so "sports"
// does not fire on "transports". Multi-word topics fall back to substring.
func containsWord(text, term string) bool {
	if strings.Contains(term, " ") {
		return strings.Contains(text, term)
	}
	idx := 0
	for {
		i := strings.Index(text[idx:], term)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(term)
		beforeOK := start == 0 || !isWordChar(text[start-1])
		afterOK := end == len(text) || !isWordChar(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}

// Normalize lower-cases and trims text the way every classifier expects it.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
