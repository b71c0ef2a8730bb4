package market

import (
	"errors"
	"testing"
)

func TestCommentContent(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr error
	}{
		{in: "Great idea!", want: "Great idea!"},
		{in: "  padded \n", want: "padded"},
		{in: "", wantErr: ErrEmptyContent},
		{in: " \t\n ", wantErr: ErrEmptyContent},
	}
	for _, tc := range cases {
		got, err := CommentContent(tc.in)
		if !errors.Is(err, tc.wantErr) {
			t.Fatalf("CommentContent(%q) err=%v, want %v", tc.in, err, tc.wantErr)
		}
		if got != tc.want {
			t.Fatalf("CommentContent(%q)=%q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseReviewDecision(t *testing.T) {
	for in, want := range map[string]InterestStatus{
		"accept":     InterestAccepted,
		"Accepted":   InterestAccepted,
		"reject":     InterestRejected,
		" REJECTED ": InterestRejected,
	} {
		got, err := ParseReviewDecision(in)
		if err != nil || got != want {
			t.Fatalf("ParseReviewDecision(%q)=%q,%v want %q", in, got, err, want)
		}
	}
	if _, err := ParseReviewDecision("maybe"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestNewIdeaNormalize(t *testing.T) {
	got, err := NewIdea{Title: "  Pet tinder ", Description: " match dogs "}.Normalize()
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got.Title != "Pet tinder" || got.Description != "match dogs" {
		t.Fatalf("fields not trimmed: %+v", got)
	}
	if _, err := (NewIdea{Title: "x", Description: "  "}).Normalize(); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty description, got %v", err)
	}
	if _, err := (NewIdea{Description: "x"}).Normalize(); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty title, got %v", err)
	}
}

func TestTransitionGuards(t *testing.T) {
	if !InterestPending.CanReview() || InterestAccepted.CanReview() || InterestRejected.CanReview() {
		t.Fatal("only pending interests are reviewable")
	}
	if !IdeaPending.CanModerate() || IdeaApproved.CanModerate() || IdeaRejected.CanModerate() {
		t.Fatal("only pending ideas are moderatable")
	}
}
