package web

import (
	"net/http"

	"mandi-billing/internal/app"
)

func (h *Handler) apiRates(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := pathID(w, r, "tenantID")
	if !ok {
		return
	}
	res, err := h.svc.GetRates(r.Context(), tenantID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (h *Handler) apiFarmerDayBill(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := pathID(w, r, "tenantID")
	if !ok {
		return
	}
	farmerID, ok := pathID(w, r, "farmerID")
	if !ok {
		return
	}
	res, err := h.svc.GetFarmerDayBill(r.Context(), app.FarmerBillRequest{
		TenantID: tenantID, FarmerID: farmerID, Date: dateParam(r),
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, res.Bill)
}

func (h *Handler) apiBuyerDayBill(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := pathID(w, r, "tenantID")
	if !ok {
		return
	}
	buyerID, ok := pathID(w, r, "buyerID")
	if !ok {
		return
	}
	res, err := h.svc.GetBuyerDayBill(r.Context(), app.BuyerBillRequest{
		TenantID: tenantID, BuyerID: buyerID, Date: dateParam(r),
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, res.Bill)
}

func (h *Handler) apiFarmerDayBills(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := pathID(w, r, "tenantID")
	if !ok {
		return
	}
	res, err := h.svc.ListFarmerDayBills(r.Context(), app.DayRequest{TenantID: tenantID, Date: dateParam(r)})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (h *Handler) apiBuyerDayBills(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := pathID(w, r, "tenantID")
	if !ok {
		return
	}
	res, err := h.svc.ListBuyerDayBills(r.Context(), app.DayRequest{TenantID: tenantID, Date: dateParam(r)})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (h *Handler) apiListInvoices(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := pathID(w, r, "tenantID")
	if !ok {
		return
	}
	buyerID, ok := pathID(w, r, "buyerID")
	if !ok {
		return
	}
	res, err := h.svc.ListInvoices(r.Context(), app.BuyerBillRequest{
		TenantID: tenantID, BuyerID: buyerID, Date: dateParam(r),
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, res)
}

// apiGenerateInvoice answers 201 for a new invoice, 200 with the stored invoice for a
// replayed request and 200 {"status":"nothing_to_invoice"} when every lot is already billed.
func (h *Handler) apiGenerateInvoice(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := pathID(w, r, "tenantID")
	if !ok {
		return
	}
	buyerID, ok := pathID(w, r, "buyerID")
	if !ok {
		return
	}
	res, err := h.svc.GenerateInvoice(r.Context(), app.GenerateInvoiceRequest{
		TenantID: tenantID, BuyerID: buyerID, Date: dateParam(r),
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	if res.NothingToInvoice {
		type response struct {
			Status   string   `json:"status"`
			Warnings []string `json:"warnings,omitempty"`
		}
		writeJSON(w, response{Status: "nothing_to_invoice", Warnings: res.Warnings})
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	writeJSONStatus(w, status, res)
}
