package models

import (
	"fmt"
	"strings"
)

// Tab is one of the three job list views.
type Tab string

const (
	TabAvailable Tab = "Available"
	TabPending   Tab = "Pending"
	TabCompleted Tab = "Completed"
)

// Tabs lists the tabs in display order.
var Tabs = []Tab{TabAvailable, TabPending, TabCompleted}

func ParseTab(s string) (Tab, error) {
	for _, t := range Tabs {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tab %q", s)
}

// SortKey orders the visible job list.
type SortKey string

const (
	SortRecent   SortKey = "Recent"
	SortDistance SortKey = "Distance"
	SortPayment  SortKey = "Payment"
	SortRating   SortKey = "Rating"
)

func ParseSortKey(s string) (SortKey, error) {
	if strings.TrimSpace(s) == "" {
		return SortRecent, nil
	}
	for _, k := range []SortKey{SortRecent, SortDistance, SortPayment, SortRating} {
		if strings.EqualFold(string(k), strings.TrimSpace(s)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// FilterAll disables the category filter.
const FilterAll = "All"

// ListKind names a Booking Store list.
type ListKind string

const (
	ListInProgress ListKind = "in-progress"
	ListCompleted  ListKind = "completed"
)

func ParseListKind(s string) (ListKind, error) {
	switch ListKind(strings.ToLower(strings.TrimSpace(s))) {
	case ListInProgress, "inprogress", "pending":
		return ListInProgress, nil
	case ListCompleted:
		return ListCompleted, nil
	}
	return "", fmt.Errorf("unknown booking list %q", s)
}
