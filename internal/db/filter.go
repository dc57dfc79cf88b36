package db

import (
	"strconv"
	"strings"

	"github.com/toeirei/seatmaster/internal/model"
)

// FilterCustomersByTokens returns the subset of customers that match all tokens.
// Matching is case-insensitive and tests first name, last name and the
// numeric id for substring containment. If tokens is empty, the original
// slice is returned.
func FilterCustomersByTokens(customers []model.Customer, tokens []string) []model.Customer {
	if len(tokens) == 0 {
		return customers
	}
	out := make([]model.Customer, 0, len(customers))
	for _, c := range customers {
		first := strings.ToLower(c.FirstName)
		last := strings.ToLower(c.LastName)
		id := strconv.Itoa(c.ID)

		matchedAll := true
		for _, tok := range tokens {
			tok = strings.ToLower(strings.TrimSpace(tok))
			if tok == "" {
				continue
			}
			if !strings.Contains(first, tok) && !strings.Contains(last, tok) && id != tok {
				matchedAll = false
				break
			}
		}
		if matchedAll {
			out = append(out, c)
		}
	}
	return out
}
