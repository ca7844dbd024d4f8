package sales

import "github.com/shopspring/decimal"

// GroupByDate buckets sales by exact date string. Groups appear in the order
// their date first shows up in the input and keep the input order inside.
func GroupByDate(sales []SaleWithProduct) []DayGroup {
	groups := make([]DayGroup, 0)
	index := make(map[string]int)
	for _, sale := range sales {
		pos, ok := index[sale.Date]
		if !ok {
			pos = len(groups)
			index[sale.Date] = pos
			groups = append(groups, DayGroup{Date: sale.Date, DailyTotal: decimal.Zero})
		}
		groups[pos].Sales = append(groups[pos].Sales, sale)
		groups[pos].DailyTotal = groups[pos].DailyTotal.Add(sale.TotalAmount)
	}
	return groups
}

// SumTotals adds up TotalAmount across sales.
func SumTotals(sales []Sale) decimal.Decimal {
	total := decimal.Zero
	for _, sale := range sales {
		total = total.Add(sale.TotalAmount)
	}
	return total
}
