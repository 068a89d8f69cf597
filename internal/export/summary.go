package export

import (
	"math"
	"sort"

	"github.com/ivanoskov/billbot/internal/model"
)

// ShopTypeCount is one aggregate row of the summary sheet.
type ShopTypeCount struct {
	ShopType string
	Count    int
}

// Stats are the aggregates shown on the summary sheet and the report chart.
type Stats struct {
	TotalBills  int
	TotalAmount float64
	TotalTax    float64
	ByShopType  []ShopTypeCount
}

// Summarize aggregates bill totals and shop-type counts. Shop types are
// ordered by count descending, then name, so output is deterministic.
func Summarize(bills []model.Bill) Stats {
	stats := Stats{TotalBills: len(bills)}

	counts := make(map[string]int)
	for _, bill := range bills {
		if bill.TotalPrice != nil {
			stats.TotalAmount += *bill.TotalPrice
		}
		if bill.TaxAmount != nil {
			stats.TotalTax += *bill.TaxAmount
		}

		shopType := "Unknown"
		if bill.ShopType != nil && *bill.ShopType != "" {
			shopType = *bill.ShopType
		}
		counts[shopType]++
	}

	stats.TotalAmount = round2(stats.TotalAmount)
	stats.TotalTax = round2(stats.TotalTax)

	for shopType, count := range counts {
		stats.ByShopType = append(stats.ByShopType, ShopTypeCount{ShopType: shopType, Count: count})
	}
	sort.Slice(stats.ByShopType, func(i, j int) bool {
		if stats.ByShopType[i].Count != stats.ByShopType[j].Count {
			return stats.ByShopType[i].Count > stats.ByShopType[j].Count
		}
		return stats.ByShopType[i].ShopType < stats.ByShopType[j].ShopType
	})

	return stats
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
