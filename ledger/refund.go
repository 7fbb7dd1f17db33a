/*
refund.go - Reimbursement sub-ledger

PURPOSE:
  Itemized refund lines attached to a monthly report. Two kinds exist:
  cash-style expenses with a directly entered value, and fuel expenses
  whose value is derived from distance, consumption rate and price per
  litre. The derived value is recomputed on every write and left undefined
  (nil, not zero) whenever any input is missing or non-positive.

All mutations flow through the Editor so the frozen-report guard and the
administrative bypass apply uniformly. Deletion is hard removal by id;
there is no soft delete.
*/
package ledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FuelValue derives a fuel refund's monetary value:
//
//	litres = distanceKm / consumptionKmL
//	value  = litres * pricePerLitre
//
// Returns nil unless all three inputs are positive.
func FuelValue(distanceKm, consumptionKmL, pricePerLitre decimal.Decimal) *decimal.Decimal {
	if !distanceKm.IsPositive() || !consumptionKmL.IsPositive() || !pricePerLitre.IsPositive() {
		return nil
	}
	v := distanceKm.Div(consumptionKmL).Mul(pricePerLitre).Round(2)
	return &v
}

// validateRefund checks the kind-specific required fields.
func validateRefund(item RefundItem) error {
	var missing []string
	if item.Date == "" {
		missing = append(missing, "date")
	}
	if item.CostCenter == nil {
		missing = append(missing, "costCenter")
	}
	switch item.Kind {
	case RefundCash:
		if item.Value == nil {
			missing = append(missing, "value")
		}
	case RefundFuel:
		if item.DistanceKm.IsZero() {
			missing = append(missing, "distanceKm")
		}
		if item.ConsumptionKmL.IsZero() {
			missing = append(missing, "consumptionKmL")
		}
		if item.PricePerLitre.IsZero() {
			missing = append(missing, "pricePerLitre")
		}
	default:
		missing = append(missing, "kind")
	}
	if len(missing) > 0 {
		return &RefundValidationError{Kind: item.Kind, Missing: missing}
	}
	return nil
}

// normalizeRefund recomputes derived fields for the item's kind.
func normalizeRefund(item *RefundItem) {
	if item.Kind == RefundFuel {
		item.Value = FuelValue(item.DistanceKm, item.ConsumptionKmL, item.PricePerLitre)
	}
}

// AddRefund validates and appends a refund line, minting its id.
func (e *Editor) AddRefund(item RefundItem) (RefundItem, error) {
	if err := e.guard(); err != nil {
		return RefundItem{}, err
	}
	normalizeRefund(&item)
	if err := validateRefund(item); err != nil {
		return RefundItem{}, err
	}
	item.ID = RefundID(uuid.NewString())
	if item.CreatedAt.IsZero() {
		item.CreatedAt = e.now()
	}
	e.Report.Refunds = append(e.Report.Refunds, item)
	e.Report.UpdatedAt = e.now()
	return item, nil
}

// UpdateRefund replaces the refund with the same id, preserving its
// creation time and recomputing any derived value.
func (e *Editor) UpdateRefund(item RefundItem) (RefundItem, error) {
	if err := e.guard(); err != nil {
		return RefundItem{}, err
	}
	i := e.Report.FindRefund(item.ID)
	if i < 0 {
		return RefundItem{}, ErrRefundNotFound
	}
	normalizeRefund(&item)
	if err := validateRefund(item); err != nil {
		return RefundItem{}, err
	}
	item.CreatedAt = e.Report.Refunds[i].CreatedAt
	e.Report.Refunds[i] = item
	e.Report.UpdatedAt = e.now()
	return item, nil
}

// RemoveRefund deletes a refund line by id.
func (e *Editor) RemoveRefund(id RefundID) error {
	if err := e.guard(); err != nil {
		return err
	}
	i := e.Report.FindRefund(id)
	if i < 0 {
		return ErrRefundNotFound
	}
	e.Report.Refunds = append(e.Report.Refunds[:i], e.Report.Refunds[i+1:]...)
	e.Report.UpdatedAt = e.now()
	return nil
}

// RefundTotal sums the defined refund values of the report.
func (r *Report) RefundTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range r.Refunds {
		if item.Value != nil {
			total = total.Add(*item.Value)
		}
	}
	return total
}

// ExpenseCategories is the fixed catalog of cash expense categories.
var ExpenseCategories = []string{
	"Bus/Ride Share",
	"Toll",
	"Parking",
	"Groceries",
	"Office Supplies",
	"Copy Shop",
	"Laundry/Cleaning",
	"Utilities",
	"Car Maintenance",
	"Postage",
	"Meals",
	"Fees",
	"Office Maintenance",
}

// FuelTypes is the fixed catalog of fuel kinds for fuel refunds.
var FuelTypes = []string{
	"Gasoline",
	"Premium Gasoline",
	"Ethanol",
	"Natural Gas",
	"Diesel",
}
