package normalize

// stopListVersion changes whenever stopList or punctuationChars change.
const stopListVersion = "1"

// punctuationChars are removed from inside tokens; a token made of exactly
// one of them is dropped outright.
const punctuationChars = `.,:()/'=?!;"&`

var stopList = []string{
	"a", "the", "an", "and", "or", "but", "about", "above", "after", "along", "amid", "among",
	"as", "at", "by", "for", "from", "in", "into", "like", "minus", "near", "of", "off", "on",
	"onto", "out", "over", "past", "per", "plus", "since", "till", "to", "under", "until", "up",
	"via", "vs", "with", "that", "can", "cannot", "could", "may", "might", "must",
	"need", "ought", "shall", "should", "will", "would", "have", "had", "has", "having", "be",
	"is", "am", "are", "was", "were", "being", "been", "get", "gets", "got", "gotten",
	"getting", "seem", "seeming", "seems", "seemed",
	"enough", "both", "all", "your", "those", "this", "these",
	"their", "some", "our", "no", "neither", "my",
	"its", "his", "her", "every", "either", "each", "any", "another",
	"just", "mere", "such", "merely", "right", "not",
	"only", "sheer", "even", "especially", "namely", "more",
	"most", "less", "least", "so", "too", "pretty", "quite",
	"rather", "somewhat", "sufficiently", "same", "different",
	"when", "why", "where", "how", "what", "who", "whom", "which",
	"whether", "whose", "if", "anybody", "anyone", "anyplace",
	"anything", "anytime", "anywhere", "everybody", "everyday",
	"everyone", "everyplace", "everything", "everywhere", "whatever",
	"whenever", "whereever", "whichever", "whoever", "whomever", "he",
	"him", "she", "it", "they", "them", "theirs",
	"you", "yours", "me", "mine", "I", "we", "us", "much", "and/or",
}

// Built once at package init and never written afterwards.
var (
	stopwords   = toSet(stopList)
	punctuation = toSet(splitChars(punctuationChars))
)

// IsStopword reports whether term is in the fixed stop list.
func IsStopword(term string) bool {
	_, ok := stopwords[term]
	return ok
}

func toSet(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

func splitChars(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
