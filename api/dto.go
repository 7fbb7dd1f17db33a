/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers and the ledger engine, not in DTOs.
  DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - ledger/types.go: Domain shapes behind these DTOs
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fieldcrew/rd-engine/ledger"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// WorkerDTO represents a worker in API responses.
type WorkerDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Company  string `json:"company,omitempty"`
	Contract string `json:"contract"`
	Archived bool   `json:"archived,omitempty"`
}

// CreateWorkerRequest is the request to register a worker. The ID is
// minted server-side from the sequence counter.
type CreateWorkerRequest struct {
	Name     string `json:"name"`
	Company  string `json:"company,omitempty"`
	Contract string `json:"contract"`
}

// ShiftDTO mirrors ledger.Shift on the wire.
type ShiftDTO struct {
	In  string `json:"in"`
	Out string `json:"out"`
}

// DayEditRequest carries the three shift pairs for one date.
type DayEditRequest struct {
	Morning   ShiftDTO `json:"morning"`
	Afternoon ShiftDTO `json:"afternoon"`
	Night     ShiftDTO `json:"night"`
}

// AllocationDTO is one cost-center split of a day.
type AllocationDTO struct {
	ID         string                `json:"id"`
	CostCenter *ledger.CostCenterRef `json:"costCenter,omitempty"`
	Minutes    int                   `json:"minutes"`
}

// AllocationEditRequest re-splits a day. Op selects the mutation; ID is
// required for update and remove.
type AllocationEditRequest struct {
	Op         string                `json:"op"` // add | update | remove
	ID         string                `json:"id,omitempty"`
	CostCenter *ledger.CostCenterRef `json:"costCenter,omitempty"`
	Minutes    int                   `json:"minutes,omitempty"`
}

// RefundRequest carries one refund line from the client. Numeric fields
// arrive as strings so the client controls decimal formatting.
type RefundRequest struct {
	Kind       string                `json:"kind"`
	Date       string                `json:"date"`
	CostCenter *ledger.CostCenterRef `json:"costCenter,omitempty"`
	Category   string                `json:"category,omitempty"`
	Value      string                `json:"value,omitempty"`

	City string `json:"city,omitempty"`
	Note string `json:"note,omitempty"`

	Origin         string `json:"origin,omitempty"`
	Destination    string `json:"destination,omitempty"`
	VehicleType    string `json:"vehicleType,omitempty"`
	FuelType       string `json:"fuelType,omitempty"`
	FuelCity       string `json:"fuelCity,omitempty"`
	DistanceKm     string `json:"distanceKm,omitempty"`
	PricePerLitre  string `json:"pricePerLitre,omitempty"`
	ConsumptionKmL string `json:"consumptionKmL,omitempty"`
}

// AttachInvoiceRequest attaches the month's fiscal document. Text is the
// already-extracted document text (extraction input, not the file); Data
// is the raw file, base64-encoded by encoding/json.
type AttachInvoiceRequest struct {
	FileData []byte `json:"fileData"`
	Text     string `json:"text,omitempty"`
}

// ReconciliationDTO reports one day's allocation arithmetic.
type ReconciliationDTO struct {
	Date        string          `json:"date"`
	Total       int             `json:"totalMinutes"`
	Allocated   int             `json:"allocatedMinutes"`
	Remainder   int             `json:"remainder"`
	Advisories  []AdvisoryDTO   `json:"advisories,omitempty"`
	Allocations []AllocationDTO `json:"allocations"`
}

// AdvisoryDTO is a non-fatal reconciliation signal.
type AdvisoryDTO struct {
	Code    string `json:"code"`
	Date    string `json:"date"`
	Minutes int    `json:"minutes"`
}

// ReportDTO is the full monthly document plus derived advisories.
type ReportDTO struct {
	WorkerID     string                `json:"workerId"`
	Year         int                   `json:"year"`
	Month        int                   `json:"month"`
	Status       string                `json:"status"`
	Operation    string                `json:"operation,omitempty"`
	CostCenter   *ledger.CostCenterRef `json:"costCenter,omitempty"`
	Days         []DayDTO              `json:"days"`
	Invoice      *InvoiceDTO           `json:"invoice,omitempty"`
	Refunds      []RefundDTO           `json:"refunds,omitempty"`
	RefundTotal  string                `json:"refundTotal"`
	TotalMinutes int                   `json:"totalMinutes"`
	DaysWorked   int                   `json:"daysWorked"`
	Advisories   []AdvisoryDTO         `json:"advisories,omitempty"`
	SubmittedAt  string                `json:"submittedAt,omitempty"`
	UpdatedAt    string                `json:"updatedAt,omitempty"`
}

// DayDTO is one day row of the report, chronological within the month.
type DayDTO struct {
	Date        string          `json:"date"`
	Morning     ShiftDTO        `json:"morning"`
	Afternoon   ShiftDTO        `json:"afternoon"`
	Night       ShiftDTO        `json:"night"`
	Minutes     int             `json:"minutes"`
	Allocations []AllocationDTO `json:"allocations,omitempty"`
}

// InvoiceDTO is the attached fiscal document summary.
type InvoiceDTO struct {
	URL      string `json:"url"`
	Issuer   string `json:"issuer,omitempty"`
	Value    string `json:"value"`
	Rejected bool   `json:"rejected,omitempty"`
}

// RefundDTO is one refund line in responses.
type RefundDTO struct {
	ID         string                `json:"id"`
	Kind       string                `json:"kind"`
	Date       string                `json:"date"`
	CostCenter *ledger.CostCenterRef `json:"costCenter,omitempty"`
	Category   string                `json:"category,omitempty"`
	Value      string                `json:"value,omitempty"`

	City string `json:"city,omitempty"`
	Note string `json:"note,omitempty"`

	Origin         string `json:"origin,omitempty"`
	Destination    string `json:"destination,omitempty"`
	VehicleType    string `json:"vehicleType,omitempty"`
	FuelType       string `json:"fuelType,omitempty"`
	FuelCity       string `json:"fuelCity,omitempty"`
	DistanceKm     string `json:"distanceKm,omitempty"`
	PricePerLitre  string `json:"pricePerLitre,omitempty"`
	ConsumptionKmL string `json:"consumptionKmL,omitempty"`

	CreatedAt string `json:"createdAt,omitempty"`
}

// SequenceDTO is a freshly minted master-record identifier.
type SequenceDTO struct {
	ID string `json:"id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toWorkerDTO(w ledger.Worker) WorkerDTO {
	return WorkerDTO{
		ID:       string(w.ID),
		Name:     w.Name,
		Company:  w.Company,
		Contract: string(w.Contract),
		Archived: w.Archived,
	}
}

func toShiftDTO(s ledger.Shift) ShiftDTO { return ShiftDTO{In: s.In, Out: s.Out} }

func toShift(s ShiftDTO) ledger.Shift { return ledger.Shift{In: s.In, Out: s.Out} }

func toAllocationDTOs(allocs []ledger.Allocation) []AllocationDTO {
	out := make([]AllocationDTO, len(allocs))
	for i, a := range allocs {
		out[i] = AllocationDTO{ID: string(a.ID), CostCenter: a.CostCenter, Minutes: a.Minutes}
	}
	return out
}

func toAdvisoryDTOs(advisories []ledger.Advisory) []AdvisoryDTO {
	out := make([]AdvisoryDTO, len(advisories))
	for i, a := range advisories {
		out[i] = AdvisoryDTO{Code: a.Code, Date: string(a.Day), Minutes: a.Minutes}
	}
	return out
}

func toReconciliationDTO(rec ledger.Reconciliation, allocs []ledger.Allocation) ReconciliationDTO {
	return ReconciliationDTO{
		Date:        string(rec.Day),
		Total:       rec.Total,
		Allocated:   rec.Allocated,
		Remainder:   rec.Remainder,
		Advisories:  toAdvisoryDTOs(rec.Advisories()),
		Allocations: toAllocationDTOs(allocs),
	}
}

func toRefundDTO(item ledger.RefundItem) RefundDTO {
	dto := RefundDTO{
		ID:          string(item.ID),
		Kind:        string(item.Kind),
		Date:        string(item.Date),
		CostCenter:  item.CostCenter,
		Category:    item.Category,
		City:        item.City,
		Note:        item.Note,
		Origin:      item.Origin,
		Destination: item.Destination,
		VehicleType: item.VehicleType,
		FuelType:    item.FuelType,
		FuelCity:    item.FuelCity,
	}
	if item.Value != nil {
		dto.Value = item.Value.StringFixed(2)
	}
	if !item.DistanceKm.IsZero() {
		dto.DistanceKm = item.DistanceKm.String()
	}
	if !item.PricePerLitre.IsZero() {
		dto.PricePerLitre = item.PricePerLitre.String()
	}
	if !item.ConsumptionKmL.IsZero() {
		dto.ConsumptionKmL = item.ConsumptionKmL.String()
	}
	if !item.CreatedAt.IsZero() {
		dto.CreatedAt = item.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

func toReportDTO(r *ledger.Report) ReportDTO {
	dto := ReportDTO{
		WorkerID:     string(r.WorkerID),
		Year:         r.Year,
		Month:        int(r.Month),
		Status:       string(r.Status),
		Operation:    r.Operation,
		CostCenter:   r.CostCenter,
		RefundTotal:  r.RefundTotal().StringFixed(2),
		TotalMinutes: r.TotalMinutes,
		DaysWorked:   r.DaysWorked,
		Advisories:   toAdvisoryDTOs(ledger.ReconcileAll(r)),
	}

	for _, date := range ledger.DaysInMonth(r.Year, r.Month) {
		day, ok := r.Days[date]
		if !ok {
			dto.Days = append(dto.Days, DayDTO{Date: string(date)})
			continue
		}
		dto.Days = append(dto.Days, DayDTO{
			Date:        string(date),
			Morning:     toShiftDTO(day.Morning),
			Afternoon:   toShiftDTO(day.Afternoon),
			Night:       toShiftDTO(day.Night),
			Minutes:     day.Total(),
			Allocations: toAllocationDTOs(day.Allocations),
		})
	}

	if r.Invoice != nil {
		dto.Invoice = &InvoiceDTO{
			URL:      r.Invoice.URL,
			Issuer:   r.Invoice.Issuer,
			Value:    r.Invoice.Value.StringFixed(2),
			Rejected: r.Invoice.Rejected,
		}
	}
	for _, item := range r.Refunds {
		dto.Refunds = append(dto.Refunds, toRefundDTO(item))
	}
	if !r.SubmittedAt.IsZero() {
		dto.SubmittedAt = r.SubmittedAt.Format(time.RFC3339)
	}
	if !r.UpdatedAt.IsZero() {
		dto.UpdatedAt = r.UpdatedAt.Format(time.RFC3339)
	}
	return dto
}

// toRefundItem converts a wire refund into the domain shape, parsing
// decimal fields; malformed numbers surface as validation failures later.
func toRefundItem(req RefundRequest) ledger.RefundItem {
	item := ledger.RefundItem{
		Kind:        ledger.RefundKind(req.Kind),
		Date:        ledger.DateKey(req.Date),
		CostCenter:  req.CostCenter,
		Category:    req.Category,
		City:        req.City,
		Note:        req.Note,
		Origin:      req.Origin,
		Destination: req.Destination,
		VehicleType: req.VehicleType,
		FuelType:    req.FuelType,
		FuelCity:    req.FuelCity,
	}
	if req.Value != "" {
		if v, err := decimal.NewFromString(req.Value); err == nil {
			item.Value = &v
		}
	}
	item.DistanceKm = parseDecimal(req.DistanceKm)
	item.PricePerLitre = parseDecimal(req.PricePerLitre)
	item.ConsumptionKmL = parseDecimal(req.ConsumptionKmL)
	return item
}

func parseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return v
}
