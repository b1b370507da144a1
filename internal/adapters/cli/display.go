package cli

import (
	"fmt"
	"io"
	"strings"

	"mandi-billing/internal/app"
	"mandi-billing/internal/core"

	"github.com/shopspring/decimal"
)

func rule(out io.Writer, ch string, width int) {
	fmt.Fprintln(out, strings.Repeat(ch, width))
}

func money(d decimal.Decimal) string { return d.StringFixed(2) }

func printRates(out io.Writer, result *app.RatesResult) {
	r := result.Rates
	fmt.Fprintln(out)
	rule(out, "=", 62)
	fmt.Fprintf(out, "  RATES: Tenant %d\n", result.TenantID)
	rule(out, "=", 62)
	fmt.Fprintf(out, "  %-30s %12s\n", "SGST %", r.SGSTPct.String())
	fmt.Fprintf(out, "  %-30s %12s\n", "CGST %", r.CGSTPct.String())
	fmt.Fprintf(out, "  %-30s %12s\n", "Cess %", r.CessPct.String())
	fmt.Fprintf(out, "  %-30s %12s\n", "Commission %", r.CommissionPct.String())
	fmt.Fprintf(out, "  %-30s %12s\n", "Unload hamali / bag", money(r.UnloadHamaliPerBag))
	fmt.Fprintf(out, "  %-30s %12s\n", "Packaging / bag", money(r.PackagingPerBag))
	fmt.Fprintf(out, "  %-30s %12s\n", "Weighing fee / bag", money(r.WeighingFeePerBag))
	rule(out, "=", 62)
}

func printFarmerBill(out io.Writer, bill *core.FarmerDayBill) {
	fmt.Fprintln(out)
	rule(out, "=", 96)
	fmt.Fprintf(out, "  FARMER BILL: %s (#%d)   Date: %s\n", bill.Farmer.Name, bill.Farmer.ID, bill.Date)
	rule(out, "=", 96)
	fmt.Fprintf(out, "  %-10s %-18s %5s %10s %10s %12s %12s %12s\n",
		"LOT", "PRODUCE", "BAGS", "KG", "RATE", "GROSS", "DEDUCTIONS", "NET")
	rule(out, "-", 96)
	for _, l := range bill.Lots {
		fmt.Fprintf(out, "  %-10s %-18s %5d %10s %10s %12s %12s %12s\n",
			l.LotNumber, truncate(l.Description, 18), l.NumberOfBags, l.TotalWeightKg.String(),
			money(l.LotPrice), money(l.GrossAmount), money(l.TotalDeductions), money(l.NetAmount))
	}
	rule(out, "-", 96)
	s := bill.Summary
	fmt.Fprintf(out, "  Hamali %s | Packaging %s | Weighing %s | Commission %s | Rent %s | Advance %s\n",
		money(s.UnloadHamali), money(s.Packaging), money(s.WeighingFee), money(s.Commission),
		money(s.VehicleRent), money(s.Advance))
	fmt.Fprintf(out, "  %-40s %12s\n", "GROSS", money(s.GrossAmount))
	fmt.Fprintf(out, "  %-40s %12s\n", "TOTAL DEDUCTIONS", money(s.TotalDeductions))
	fmt.Fprintf(out, "  %-40s %12s\n", "NET PAYABLE TO FARMER", money(s.NetAmount))
	rule(out, "=", 96)
}

func printBuyerBill(out io.Writer, bill *core.BuyerDayBill) {
	fmt.Fprintln(out)
	rule(out, "=", 96)
	fmt.Fprintf(out, "  BUYER BILL: %s (#%d)   Date: %s\n", bill.Buyer.Name, bill.Buyer.ID, bill.Date)
	rule(out, "=", 96)
	fmt.Fprintf(out, "  %-10s %-16s %5s %10s %10s %12s %12s %12s\n",
		"LOT", "FARMER", "BAGS", "KG", "RATE", "BASIC", "CHARGES", "TOTAL")
	rule(out, "-", 96)
	for _, l := range bill.Lots {
		lot := l.LotNumber
		if l.Allocated {
			lot += "*"
		}
		fmt.Fprintf(out, "  %-10s %-16s %5d %10s %10s %12s %12s %12s\n",
			lot, truncate(l.FarmerName, 16), l.NumberOfBags, l.TotalWeightKg.String(),
			money(l.LotPrice), money(l.BasicAmount), money(l.TotalCharges), money(l.LotTotal))
	}
	rule(out, "-", 96)
	s := bill.Summary
	fmt.Fprintf(out, "  Packing %s | Weighing %s | Commission %s | SGST %s | CGST %s | Cess %s\n",
		money(s.Packing), money(s.Weighing), money(s.Commission), money(s.SGST), money(s.CGST), money(s.Cess))
	fmt.Fprintf(out, "  %-40s %12s\n", "BASIC", money(s.BasicAmount))
	fmt.Fprintf(out, "  %-40s %12s\n", "TOTAL PAYABLE BY BUYER", money(s.TotalPayable))
	rule(out, "=", 96)
	printWarnings(out, bill.Warnings)
}

func printFarmerBillList(out io.Writer, result *app.FarmerBillListResult) {
	fmt.Fprintln(out)
	rule(out, "=", 72)
	fmt.Fprintf(out, "  FARMER BILLS: %s\n", result.Date)
	rule(out, "=", 72)
	if len(result.Bills) == 0 {
		fmt.Fprintln(out, "  No billable lots.")
		rule(out, "=", 72)
		return
	}
	fmt.Fprintf(out, "  %-6s %-28s %5s %14s %14s\n", "ID", "FARMER", "LOTS", "GROSS", "NET")
	rule(out, "-", 72)
	total := decimal.Zero
	for _, b := range result.Bills {
		fmt.Fprintf(out, "  %-6d %-28s %5d %14s %14s\n", b.Farmer.ID, truncate(b.Farmer.Name, 28),
			b.Summary.TotalLots, money(b.Summary.GrossAmount), money(b.Summary.NetAmount))
		total = total.Add(b.Summary.NetAmount)
	}
	rule(out, "-", 72)
	fmt.Fprintf(out, "  %-56s %14s\n", "TOTAL NET", money(total))
	rule(out, "=", 72)
}

func printBuyerBillList(out io.Writer, result *app.BuyerBillListResult) {
	fmt.Fprintln(out)
	rule(out, "=", 72)
	fmt.Fprintf(out, "  BUYER BILLS: %s\n", result.Date)
	rule(out, "=", 72)
	if len(result.Bills) == 0 {
		fmt.Fprintln(out, "  No billable lots.")
		rule(out, "=", 72)
		return
	}
	fmt.Fprintf(out, "  %-6s %-28s %5s %14s %14s\n", "ID", "BUYER", "LOTS", "BASIC", "PAYABLE")
	rule(out, "-", 72)
	total := decimal.Zero
	for _, b := range result.Bills {
		fmt.Fprintf(out, "  %-6d %-28s %5d %14s %14s\n", b.Buyer.ID, truncate(b.Buyer.Name, 28),
			b.Summary.TotalLots, money(b.Summary.BasicAmount), money(b.Summary.TotalPayable))
		total = total.Add(b.Summary.TotalPayable)
	}
	rule(out, "-", 72)
	fmt.Fprintf(out, "  %-56s %14s\n", "TOTAL PAYABLE", money(total))
	rule(out, "=", 72)
}

func printInvoice(out io.Writer, inv *core.TaxInvoice) {
	c := inv.Calculations
	fmt.Fprintln(out)
	rule(out, "=", 80)
	fmt.Fprintf(out, "  TAX INVOICE %s   Date: %s\n", inv.InvoiceNumber, inv.InvoiceDate)
	fmt.Fprintf(out, "  Seller: %s  GSTIN %s\n", inv.Seller.Name, inv.Seller.GSTIN)
	fmt.Fprintf(out, "  Buyer : %s  GSTIN %s\n", inv.Buyer.Name, inv.Buyer.GSTIN)
	rule(out, "=", 80)
	fmt.Fprintf(out, "  %-3s %-10s %-18s %-6s %5s %10s %10s %10s\n",
		"#", "LOT", "PRODUCE", "HSN", "BAGS", "QTL", "RATE", "AMOUNT")
	rule(out, "-", 80)
	for _, it := range inv.Items {
		fmt.Fprintf(out, "  %-3d %-10s %-18s %-6s %5d %10s %10s %10s\n",
			it.LineNumber, it.LotNumber, truncate(it.Description, 18), it.HSNCode, it.Bags,
			it.WeightQuintals.String(), money(it.Rate), money(it.Amount))
	}
	rule(out, "-", 80)
	for _, row := range []struct {
		label string
		value decimal.Decimal
	}{
		{"Sub total", c.SubTotal},
		{"Packaging", c.Packaging},
		{"Hamali", c.Hamali},
		{"Weighing", c.WeighingCharges},
		{"Commission", c.Commission},
		{"Cess", c.Cess},
		{"Taxable amount", c.TaxableAmount},
		{"SGST @ " + c.SGSTPct.String() + "%", c.SGST},
		{"CGST @ " + c.CGSTPct.String() + "%", c.CGST},
		{"TOTAL", c.TotalAmount},
	} {
		fmt.Fprintf(out, "  %-62s %14s\n", row.label, money(row.value))
	}
	fmt.Fprintf(out, "  %s\n", c.AmountInWords)
	rule(out, "=", 80)
}

func printInvoiceList(out io.Writer, result *app.InvoiceListResult) {
	fmt.Fprintln(out)
	rule(out, "=", 62)
	fmt.Fprintf(out, "  INVOICES: %s\n", result.Date)
	rule(out, "=", 62)
	if len(result.Invoices) == 0 {
		fmt.Fprintln(out, "  No invoices issued.")
		rule(out, "=", 62)
		return
	}
	fmt.Fprintf(out, "  %-24s %6s %14s\n", "NUMBER", "LOTS", "TOTAL")
	rule(out, "-", 62)
	for _, inv := range result.Invoices {
		fmt.Fprintf(out, "  %-24s %6d %14s\n", inv.InvoiceNumber, len(inv.LotIDs), money(inv.Calculations.TotalAmount))
	}
	rule(out, "=", 62)
}

func printWarnings(out io.Writer, warnings []string) {
	for _, w := range warnings {
		fmt.Fprintf(out, "  warning: %s\n", w)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
