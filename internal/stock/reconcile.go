package stock

import (
	"math"
	"time"

	"gorm.io/gorm"
)

// Drift: a (shop, product) pair whose running counter disagrees with the
// ledger sum Σpurchases − Σsales − Σadjustments.
type Drift struct {
	ProductID uint    `json:"product_id"`
	Counter   float64 `json:"counter"`
	Ledger    float64 `json:"ledger"`
	Diff      float64 `json:"diff"`
}

type sumRow struct {
	ProductID uint
	Total     float64
}

const driftEpsilon = 1e-9

// Reconcile replays the append-only ledger for one shop and compares it
// against the running counters. With repair set, drifting counters are reset
// to the ledger value. The purchase/sale/adjustment rows are the source of
// truth; the counter is just a cache of their net.
func Reconcile(db *gorm.DB, shopID uint, repair bool) ([]Drift, error) {
	ledger := map[uint]float64{}

	var rows []sumRow
	err := db.Raw(`
		SELECT pi.product_id AS product_id, SUM(pi.quantity) AS total
		FROM purchase_items pi
		JOIN purchases p ON p.id = pi.purchase_id
		WHERE p.shop_id = ?
		GROUP BY pi.product_id
	`, shopID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		ledger[r.ProductID] += r.Total
	}

	rows = rows[:0]
	err = db.Raw(`
		SELECT si.product_id AS product_id, SUM(si.quantity) AS total
		FROM sale_items si
		JOIN sales s ON s.id = si.sale_id
		WHERE s.shop_id = ?
		GROUP BY si.product_id
	`, shopID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		ledger[r.ProductID] -= r.Total
	}

	rows = rows[:0]
	err = db.Raw(`
		SELECT product_id, SUM(quantity) AS total
		FROM inventory_adjustments
		WHERE shop_id = ?
		GROUP BY product_id
	`, shopID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		ledger[r.ProductID] -= r.Total
	}

	counters := map[uint]float64{}
	var invRows []sumRow
	err = db.Raw(`SELECT product_id, quantity AS total FROM inventory WHERE shop_id = ?`, shopID).Scan(&invRows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range invRows {
		counters[r.ProductID] = r.Total
	}

	seen := map[uint]bool{}
	var drifts []Drift
	check := func(pid uint) {
		if seen[pid] {
			return
		}
		seen[pid] = true
		counter := counters[pid]
		want := ledger[pid]
		if math.Abs(counter-want) > driftEpsilon {
			drifts = append(drifts, Drift{ProductID: pid, Counter: counter, Ledger: want, Diff: counter - want})
		}
	}
	for pid := range ledger {
		check(pid)
	}
	for pid := range counters {
		check(pid)
	}

	if repair && len(drifts) > 0 {
		err = db.Transaction(func(tx *gorm.DB) error {
			now := time.Now()
			for _, d := range drifts {
				err := tx.Exec(`
					INSERT INTO inventory (shop_id, product_id, quantity, created_at, updated_at)
					VALUES (?, ?, ?, ?, ?)
					ON CONFLICT (shop_id, product_id)
					DO UPDATE SET quantity = excluded.quantity, updated_at = excluded.updated_at
				`, shopID, d.ProductID, d.Ledger, now, now).Error
				if err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return drifts, nil
}
