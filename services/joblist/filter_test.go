package joblist

import (
	"testing"

	"taskmaster/models"
)

func mustAmount(t *testing.T, s string) models.Amount {
	t.Helper()
	a, err := models.ParseAmount(s)
	if err != nil {
		t.Fatalf("ParseAmount(%q): %v", s, err)
	}
	return a
}

func TestFilterJobsRecentKeepsServerOrder(t *testing.T) {
	list := []models.Booking{
		{ID: "3", Payment: 100, Distance: "9 km", CustomerRating: 1},
		{ID: "1", Payment: 900, Distance: "1 km", CustomerRating: 5},
		{ID: "2", Payment: 500, Distance: "4 km", CustomerRating: 3},
	}
	got := FilterJobs(list, models.FilterAll, "", models.SortRecent)
	for i := range list {
		if got[i].ID != list[i].ID {
			t.Fatalf("Recent reordered list: %v", ids(got))
		}
	}
}

func TestFilterJobsPaymentDescending(t *testing.T) {
	list := []models.Booking{
		{ID: "a", Payment: mustAmount(t, "₹500")},
		{ID: "b", Payment: mustAmount(t, "₹1,200")},
		{ID: "c", Payment: mustAmount(t, "₹80")},
	}
	got := ids(FilterJobs(list, "", "", models.SortPayment))
	want := []string{"b", "a", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("payment sort = %v, want %v", got, want)
		}
	}
	if list[0].ID != "a" {
		t.Fatal("FilterJobs mutated its input")
	}
}

func TestFilterJobsDistanceAndRating(t *testing.T) {
	list := []models.Booking{
		{ID: "far", Distance: "12 km", CustomerRating: 4.8},
		{ID: "unknown", CustomerRating: 4.8},
		{ID: "near", Distance: "800 m", CustomerRating: 3.9},
		{ID: "mid", Distance: "2.5 km"},
	}
	if got := ids(FilterJobs(list, "", "", models.SortDistance)); got[0] != "near" || got[1] != "mid" || got[2] != "far" || got[3] != "unknown" {
		t.Fatalf("distance sort = %v", got)
	}
	// Equal ratings keep server order.
	if got := ids(FilterJobs(list, "", "", models.SortRating)); got[0] != "far" || got[1] != "unknown" || got[2] != "near" || got[3] != "mid" {
		t.Fatalf("rating sort = %v", got)
	}
}

func TestFilterJobsSearchAndCategory(t *testing.T) {
	list := []models.Booking{
		{ID: "1", CustomerName: "Asha Rao", ServiceName: "AC Repair", Category: "Appliances", Address: "MG Road"},
		{ID: "2", CustomerName: "Vikram", ServiceName: "Plumbing", Category: "Home", Description: "Leaking tap"},
		{ID: "3", CustomerName: "Meera", ServiceName: "Deep Cleaning", Category: "Home", Address: "mg road"},
	}
	if got := ids(FilterJobs(list, "", "MG ROAD", models.SortRecent)); len(got) != 2 || got[0] != "1" || got[1] != "3" {
		t.Fatalf("search = %v", got)
	}
	if got := ids(FilterJobs(list, "home", "", models.SortRecent)); len(got) != 2 || got[0] != "2" {
		t.Fatalf("category filter = %v", got)
	}
	if got := ids(FilterJobs(list, "Plumbing", "tap", models.SortRecent)); len(got) != 1 || got[0] != "2" {
		t.Fatalf("service filter with search = %v", got)
	}
	if got := FilterJobs(nil, models.FilterAll, "", models.SortPayment); got == nil || len(got) != 0 {
		t.Fatalf("nil input should give empty list, got %#v", got)
	}
}
