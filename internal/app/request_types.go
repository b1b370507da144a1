package app

// DayRequest selects one tenant's calendar day.
type DayRequest struct {
	TenantID int
	Date     string
}

// FarmerBillRequest is the input for GetFarmerDayBill.
type FarmerBillRequest struct {
	TenantID int
	FarmerID int
	Date     string
}

// BuyerBillRequest is the input for GetBuyerDayBill and ListInvoices.
type BuyerBillRequest struct {
	TenantID int
	BuyerID  int
	Date     string
}

// GenerateInvoiceRequest is the input for GenerateInvoice.
type GenerateInvoiceRequest struct {
	TenantID int
	BuyerID  int
	Date     string
}
