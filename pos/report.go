package pos

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angkringan-pos/api/internal/enum"
)

// Report aggregates sales over an inclusive calendar-day range.
// Voided transactions and records with unreadable dates are excluded
// everywhere; a cancelled sale contributes neither revenue nor volume.
type Report struct {
	Start time.Time
	End   time.Time

	TotalSales  decimal.Decimal
	TotalCost   decimal.Decimal
	NetProfit   decimal.Decimal
	TotalOrders int

	PaymentBreakdown []PaymentGroup
	TopSellers       []SellerRank
}

// PaymentGroup is one payment method's share of the range.
type PaymentGroup struct {
	Method string
	Count  int
	Total  decimal.Decimal
}

// SellerRank is one menu item's sold volume in the range. Items are
// grouped by name: snapshots of a renamed or re-entered catalog row
// that sell under the same name rank as one item.
type SellerRank struct {
	Name     string
	Quantity int
	Revenue  decimal.Decimal
}

// BuildReport aggregates completed transactions whose created_at falls
// within [start, end], compared at calendar-day granularity: a sale at
// 23:59 on the end date is inside the range.
func BuildReport(txs []Transaction, start, end time.Time) Report {
	rep := Report{
		Start:      start,
		End:        end,
		TotalSales: decimal.Zero,
		TotalCost:  decimal.Zero,
		NetProfit:  decimal.Zero,
	}

	startDay := truncateToDay(start)
	endDay := truncateToDay(end)

	byMethod := make(map[string]*PaymentGroup)
	var methodOrder []string
	bySeller := make(map[string]*SellerRank)
	var sellerOrder []string

	for _, tx := range txs {
		if tx.Status != enum.TransactionStatusCompleted {
			continue
		}
		ts, ok := tx.CreatedAtTime()
		if !ok {
			continue
		}
		day := truncateToDay(ts)
		if day.Before(startDay) || day.After(endDay) {
			continue
		}

		rep.TotalOrders++
		rep.TotalSales = rep.TotalSales.Add(tx.TotalAmount())

		g, seen := byMethod[tx.PaymentMethod]
		if !seen {
			g = &PaymentGroup{Method: tx.PaymentMethod, Total: decimal.Zero}
			byMethod[tx.PaymentMethod] = g
			methodOrder = append(methodOrder, tx.PaymentMethod)
		}
		g.Count++
		g.Total = g.Total.Add(tx.TotalAmount())

		for _, it := range tx.Items {
			qty := decimal.NewFromInt(int64(it.Quantity))
			rep.TotalCost = rep.TotalCost.Add(ParseAmount(it.CostPrice).Mul(qty))

			s, seen := bySeller[it.Name]
			if !seen {
				s = &SellerRank{Name: it.Name, Revenue: decimal.Zero}
				bySeller[it.Name] = s
				sellerOrder = append(sellerOrder, it.Name)
			}
			s.Quantity += it.Quantity
			s.Revenue = s.Revenue.Add(ParseAmount(it.Price).Mul(qty))
		}
	}

	rep.NetProfit = rep.TotalSales.Sub(rep.TotalCost)

	for _, m := range methodOrder {
		rep.PaymentBreakdown = append(rep.PaymentBreakdown, *byMethod[m])
	}

	rep.TopSellers = make([]SellerRank, 0, len(sellerOrder))
	for _, name := range sellerOrder {
		rep.TopSellers = append(rep.TopSellers, *bySeller[name])
	}
	// Stable sort keeps first-encounter order for equal quantities.
	sort.SliceStable(rep.TopSellers, func(i, j int) bool {
		return rep.TopSellers[i].Quantity > rep.TopSellers[j].Quantity
	})

	return rep
}

// TopN returns at most n of the best sellers.
func (r Report) TopN(n int) []SellerRank {
	if n < 0 {
		n = 0
	}
	if n > len(r.TopSellers) {
		n = len(r.TopSellers)
	}
	return r.TopSellers[:n]
}

// Margin returns net profit as a fraction of sales, zero when there
// were no sales.
func (r Report) Margin() decimal.Decimal {
	if r.TotalSales.IsZero() {
		return decimal.Zero
	}
	return r.NetProfit.Div(r.TotalSales)
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
