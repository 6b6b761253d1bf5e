package joblist

import (
	"sort"
	"strings"

	"taskmaster/models"
)

// FilterJobs returns the jobs of list matching the category filter and the
// search text, ordered by sortBy. It is a pure function of its arguments and
// never reorders list itself.
func FilterJobs(list []models.Booking, filter, search string, sortBy models.SortKey) []models.Booking {
	query := strings.ToLower(strings.TrimSpace(search))
	filter = strings.TrimSpace(filter)

	out := make([]models.Booking, 0, len(list))
	for _, b := range list {
		if !matchesFilter(b, filter) || !matchesSearch(b, query) {
			continue
		}
		out = append(out, b)
	}
	sortJobs(out, sortBy)
	return out
}

func matchesFilter(b models.Booking, filter string) bool {
	if filter == "" || strings.EqualFold(filter, models.FilterAll) {
		return true
	}
	return strings.EqualFold(b.Category, filter) || strings.EqualFold(b.ServiceName, filter)
}

func matchesSearch(b models.Booking, query string) bool {
	if query == "" {
		return true
	}
	for _, field := range []string{b.CustomerName, b.ServiceName, b.Category, b.Address, b.Description} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

// sortJobs orders in place. Ties keep server order.
func sortJobs(list []models.Booking, key models.SortKey) {
	switch key {
	case models.SortDistance:
		sort.SliceStable(list, func(i, j int) bool {
			di, oki := list[i].DistanceKm()
			dj, okj := list[j].DistanceKm()
			if oki != okj {
				// Unknown distances go last.
				return oki
			}
			return di < dj
		})
	case models.SortPayment:
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Payment > list[j].Payment
		})
	case models.SortRating:
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].CustomerRating > list[j].CustomerRating
		})
	}
}
