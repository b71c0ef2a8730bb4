package market

// EnrichedIdea is an idea decorated with the viewer's interest status and the
// total interest count across all investors.
type EnrichedIdea struct {
	Idea
	InterestStatus *InterestStatus `json:"interestStatus"`
}

// Interested reports whether the viewer already has an interest on the idea.
func (e EnrichedIdea) Interested() bool { return e.InterestStatus != nil }

// Enrich joins ideas with interests. For investorID's own interests the last
// entry per idea in list order wins; the count tallies every interest on the
// idea regardless of investor. An interest without investorId came from a
// "mine" endpoint and counts as the viewer's. Inputs are never modified.
func Enrich(ideas []Idea, interests []Interest, investorID int64) []EnrichedIdea {
	statuses := make(map[int64]InterestStatus, len(interests))
	counts := make(map[int64]int, len(interests))
	for _, in := range interests {
		ideaID := in.TargetIdeaID()
		if ideaID == 0 {
			continue
		}
		counts[ideaID]++
		if in.InvestorID == 0 || in.InvestorID == investorID {
			statuses[ideaID] = in.Status
		}
	}

	out := make([]EnrichedIdea, 0, len(ideas))
	for _, idea := range ideas {
		e := EnrichedIdea{Idea: cloneIdea(idea)}
		e.InterestCount = counts[idea.ID]
		if st, ok := statuses[idea.ID]; ok {
			e.InterestStatus = &st
		}
		out = append(out, e)
	}
	return out
}

func cloneIdea(i Idea) Idea {
	if i.Author != nil {
		a := *i.Author
		i.Author = &a
	}
	if i.Comments != nil {
		i.Comments = append([]Comment(nil), i.Comments...)
	}
	return i
}
