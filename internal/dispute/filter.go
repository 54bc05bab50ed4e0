package dispute

import "strings"

// Filter returns the disputes whose id, buyer email or reason contains query, ignoring case.
// Other fields such as the shipping carrier are not searched. An empty query returns the
// input unchanged.
func Filter(query string, disputes []Dispute) []Dispute {
	if query == "" {
		return disputes
	}
	needle := strings.ToLower(query)
	matches := make([]Dispute, 0, len(disputes))
	for _, d := range disputes {
		if matchesQuery(d, needle) {
			matches = append(matches, d)
		}
	}
	return matches
}

func matchesQuery(d Dispute, needle string) bool {
	for _, field := range []string{d.ID, d.BuyerEmail, d.Reason} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
