package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// LotStatus is the field-entry lifecycle state of a lot. Only completed lots are billable.
type LotStatus string

const (
	LotStatusDraft     LotStatus = "draft"
	LotStatusCompleted LotStatus = "completed"
	LotStatusCancelled LotStatus = "cancelled"
)

// BankDetails identifies an account that receives or sends settlement payments.
type BankDetails struct {
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
	BankName      string `json:"bank_name"`
	Branch        string `json:"branch"`
	IFSC          string `json:"ifsc"`
}

// Tenant is the commission agent operating in the market. It is the seller of record on
// every tax invoice.
type Tenant struct {
	ID      int         `json:"id"`
	Name    string      `json:"name"`
	Address string      `json:"address"`
	Phone   string      `json:"phone"`
	GSTIN   string      `json:"gstin"`
	Bank    BankDetails `json:"bank"`
}

// Farmer owns lots brought to the market.
type Farmer struct {
	ID       int    `json:"id"`
	TenantID int    `json:"tenant_id"`
	Name     string `json:"name"`
	Mobile   string `json:"mobile"`
	Village  string `json:"village,omitempty"`
}

// Buyer purchases lots, either directly or through a bag-level allocation.
type Buyer struct {
	ID       int         `json:"id"`
	TenantID int         `json:"tenant_id"`
	Name     string      `json:"name"`
	Contact  string      `json:"contact"`
	Address  string      `json:"address"`
	GSTIN    string      `json:"gstin"`
	HSNCode  string      `json:"hsn_code"`
	Bank     BankDetails `json:"bank"`
}

// Lot is one farmer's batch of produce for one day. LotPrice is the rate per quintal.
// CreatedAt decides which calendar day the lot is billed on.
type Lot struct {
	ID           int              `json:"id"`
	TenantID     int              `json:"tenant_id"`
	FarmerID     int              `json:"farmer_id"`
	FarmerName   string           `json:"farmer_name"` // joined from farmers
	BuyerID      *int             `json:"buyer_id,omitempty"`
	LotNumber    string           `json:"lot_number"`
	NumberOfBags int              `json:"number_of_bags"`
	LotPrice     decimal.Decimal  `json:"lot_price"`
	Status       LotStatus        `json:"status"`
	Grade        string           `json:"grade,omitempty"`
	Variety      string           `json:"variety,omitempty"`
	VehicleRent  *decimal.Decimal `json:"vehicle_rent,omitempty"`
	Advance      *decimal.Decimal `json:"advance,omitempty"`
	UnloadHamali *decimal.Decimal `json:"unload_hamali,omitempty"` // replaces the per-bag hamali when set
	CreatedAt    time.Time        `json:"created_at"`
}

// Description is the produce label used on bills and invoice lines.
func (l Lot) Description() string {
	switch {
	case l.Variety != "" && l.Grade != "":
		return l.Variety + " (" + l.Grade + ")"
	case l.Variety != "":
		return l.Variety
	case l.Grade != "":
		return l.Grade
	default:
		return "Produce"
	}
}

// priced reports whether the lot carries a usable rate. Weighed-bag presence is checked
// separately once the applicable bag set is known.
func (l Lot) priced() bool {
	return l.Status == LotStatusCompleted && l.LotPrice.IsPositive()
}

// Bag is one sack within a lot. Weight is nil until the bag is weighed.
type Bag struct {
	ID        int              `json:"id"`
	LotID     int              `json:"lot_id"`
	BagNumber int              `json:"bag_number"`
	Weight    *decimal.Decimal `json:"weight,omitempty"` // kilograms
}

func valueOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
