package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"mandi-billing/internal/app"
)

const usage = `Usage:
  app rates        <tenant>
  app farmer-bill  <tenant> <farmer> [YYYY-MM-DD]
  app buyer-bill   <tenant> <buyer>  [YYYY-MM-DD]
  app farmer-bills <tenant> [YYYY-MM-DD]
  app buyer-bills  <tenant> [YYYY-MM-DD]
  app invoice      <tenant> <buyer>  [YYYY-MM-DD]
  app invoices     <tenant> <buyer>  [YYYY-MM-DD]`

// Run executes a one-shot CLI command, printing to out.
// args excludes the program name; args[0] selects the command.
func Run(ctx context.Context, svc app.ApplicationService, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("missing command\n%s", usage)
	}

	switch args[0] {
	case "rates":
		ids, _, err := parseArgs(args[1:], 1)
		if err != nil {
			return err
		}
		result, err := svc.GetRates(ctx, ids[0])
		if err != nil {
			return fmt.Errorf("failed to get rates: %w", err)
		}
		printRates(out, result)

	case "farmer-bill", "fb":
		ids, date, err := parseArgs(args[1:], 2)
		if err != nil {
			return err
		}
		result, err := svc.GetFarmerDayBill(ctx, app.FarmerBillRequest{TenantID: ids[0], FarmerID: ids[1], Date: date})
		if err != nil {
			return fmt.Errorf("failed to get farmer bill: %w", err)
		}
		printFarmerBill(out, result.Bill)

	case "buyer-bill", "bb":
		ids, date, err := parseArgs(args[1:], 2)
		if err != nil {
			return err
		}
		result, err := svc.GetBuyerDayBill(ctx, app.BuyerBillRequest{TenantID: ids[0], BuyerID: ids[1], Date: date})
		if err != nil {
			return fmt.Errorf("failed to get buyer bill: %w", err)
		}
		printBuyerBill(out, result.Bill)

	case "farmer-bills":
		ids, date, err := parseArgs(args[1:], 1)
		if err != nil {
			return err
		}
		result, err := svc.ListFarmerDayBills(ctx, app.DayRequest{TenantID: ids[0], Date: date})
		if err != nil {
			return fmt.Errorf("failed to list farmer bills: %w", err)
		}
		printFarmerBillList(out, result)

	case "buyer-bills":
		ids, date, err := parseArgs(args[1:], 1)
		if err != nil {
			return err
		}
		result, err := svc.ListBuyerDayBills(ctx, app.DayRequest{TenantID: ids[0], Date: date})
		if err != nil {
			return fmt.Errorf("failed to list buyer bills: %w", err)
		}
		printBuyerBillList(out, result)

	case "invoice", "inv":
		ids, date, err := parseArgs(args[1:], 2)
		if err != nil {
			return err
		}
		result, err := svc.GenerateInvoice(ctx, app.GenerateInvoiceRequest{TenantID: ids[0], BuyerID: ids[1], Date: date})
		if err != nil {
			return fmt.Errorf("failed to generate invoice: %w", err)
		}
		if result.NothingToInvoice {
			fmt.Fprintln(out, "Nothing to invoice: every qualifying lot is already invoiced.")
			printWarnings(out, result.Warnings)
			return nil
		}
		if !result.Created {
			fmt.Fprintln(out, "Invoice already exists for these lots.")
		}
		printInvoice(out, result.Invoice)
		printWarnings(out, result.Warnings)

	case "invoices":
		ids, date, err := parseArgs(args[1:], 2)
		if err != nil {
			return err
		}
		result, err := svc.ListInvoices(ctx, app.BuyerBillRequest{TenantID: ids[0], BuyerID: ids[1], Date: date})
		if err != nil {
			return fmt.Errorf("failed to list invoices: %w", err)
		}
		printInvoiceList(out, result)

	default:
		return fmt.Errorf("unknown command: %s\n%s", args[0], usage)
	}
	return nil
}

// parseArgs reads n positive integer ids followed by an optional date.
func parseArgs(args []string, n int) ([]int, string, error) {
	if len(args) < n || len(args) > n+1 {
		return nil, "", fmt.Errorf("wrong number of arguments\n%s", usage)
	}
	ids := make([]int, n)
	for i := 0; i < n; i++ {
		id, err := strconv.Atoi(args[i])
		if err != nil || id <= 0 {
			return nil, "", fmt.Errorf("invalid id %q", args[i])
		}
		ids[i] = id
	}
	date := ""
	if len(args) == n+1 {
		date = args[n]
	}
	return ids, date, nil
}
