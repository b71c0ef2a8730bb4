package market

import "strings"

// CommentContent trims content and rejects it when nothing is left.
func CommentContent(raw string) (string, error) {
	content := strings.TrimSpace(raw)
	if content == "" {
		return "", ErrEmptyContent
	}
	return content, nil
}

// CanReview reports whether an interest may still be accepted or rejected.
func (s InterestStatus) CanReview() bool { return s == InterestPending }

// Terminal reports whether no further review transition is exposed.
func (s InterestStatus) Terminal() bool {
	return s == InterestAccepted || s == InterestRejected
}

// ParseReviewDecision maps "accept"/"accepted" and "reject"/"rejected" to a target status.
func ParseReviewDecision(raw string) (InterestStatus, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "accept", "accepted":
		return InterestAccepted, nil
	case "reject", "rejected":
		return InterestRejected, nil
	}
	return "", invalid("decision must be accept or reject")
}

// CanModerate reports whether an admin may approve or reject the idea.
func (s IdeaStatus) CanModerate() bool { return s == IdeaPending }

// ParseIdeaStatus accepts the three moderation states; empty means any.
func ParseIdeaStatus(raw string) (IdeaStatus, error) {
	switch v := IdeaStatus(strings.ToLower(strings.TrimSpace(raw))); v {
	case "", IdeaPending, IdeaApproved, IdeaRejected:
		return v, nil
	}
	return "", invalid("unknown idea status " + raw)
}
