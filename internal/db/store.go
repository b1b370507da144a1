package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mandi-billing/internal/core"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Store is the PostgreSQL implementation of core.Store.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore returns a Store backed by pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

var _ core.Store = (*Store)(nil)

type scanner interface {
	Scan(dest ...any) error
}

func nullable(n decimal.NullDecimal) *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	v := n.Decimal
	return &v
}

func (s *Store) GetTenant(ctx context.Context, tenantID int) (*core.Tenant, error) {
	var t core.Tenant
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, address, phone, gstin,
		       bank_account_name, bank_account_number, bank_name, bank_branch, bank_ifsc
		FROM tenants
		WHERE id = $1
	`, tenantID).Scan(&t.ID, &t.Name, &t.Address, &t.Phone, &t.GSTIN,
		&t.Bank.AccountName, &t.Bank.AccountNumber, &t.Bank.BankName, &t.Bank.Branch, &t.Bank.IFSC)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get tenant %d: %w", tenantID, err)
	}
	return &t, nil
}

func (s *Store) GetTenantSettings(ctx context.Context, tenantID int) (*core.TenantSettings, error) {
	var sgst, cgst, cess, hamali, packaging, weighing, commission decimal.NullDecimal
	err := s.pool.QueryRow(ctx, `
		SELECT sgst_pct, cgst_pct, cess_pct, unload_hamali_per_bag,
		       packaging_per_bag, weighing_fee_per_bag, commission_pct
		FROM tenant_settings
		WHERE tenant_id = $1
	`, tenantID).Scan(&sgst, &cgst, &cess, &hamali, &packaging, &weighing, &commission)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get settings for tenant %d: %w", tenantID, err)
	}
	return &core.TenantSettings{
		TenantID:           tenantID,
		SGSTPct:            nullable(sgst),
		CGSTPct:            nullable(cgst),
		CessPct:            nullable(cess),
		UnloadHamaliPerBag: nullable(hamali),
		PackagingPerBag:    nullable(packaging),
		WeighingFeePerBag:  nullable(weighing),
		CommissionPct:      nullable(commission),
	}, nil
}

func (s *Store) GetFarmer(ctx context.Context, tenantID, farmerID int) (*core.Farmer, error) {
	var f core.Farmer
	err := s.pool.QueryRow(ctx, `
		SELECT id, tenant_id, name, mobile, village
		FROM farmers
		WHERE id = $1 AND tenant_id = $2
	`, farmerID, tenantID).Scan(&f.ID, &f.TenantID, &f.Name, &f.Mobile, &f.Village)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get farmer %d: %w", farmerID, err)
	}
	return &f, nil
}

func (s *Store) GetBuyer(ctx context.Context, tenantID, buyerID int) (*core.Buyer, error) {
	var b core.Buyer
	err := s.pool.QueryRow(ctx, `
		SELECT id, tenant_id, name, contact, address, gstin, hsn_code,
		       bank_account_name, bank_account_number, bank_name, bank_branch, bank_ifsc
		FROM buyers
		WHERE id = $1 AND tenant_id = $2
	`, buyerID, tenantID).Scan(&b.ID, &b.TenantID, &b.Name, &b.Contact, &b.Address, &b.GSTIN, &b.HSNCode,
		&b.Bank.AccountName, &b.Bank.AccountNumber, &b.Bank.BankName, &b.Bank.Branch, &b.Bank.IFSC)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get buyer %d: %w", buyerID, err)
	}
	return &b, nil
}

const lotColumns = `
	l.id, l.tenant_id, l.farmer_id, f.name, l.buyer_id, l.lot_number, l.number_of_bags,
	l.lot_price, l.status, l.grade, l.variety, l.vehicle_rent, l.advance, l.unload_hamali,
	l.created_at`

// lotWindow filters on tenant ($1), creation window ($3, $4) and optional status ($5).
const lotWindow = `
	l.tenant_id = $1
	AND l.created_at >= $3 AND l.created_at < $4
	AND ($5::text = '' OR l.status = $5::text)`

func scanLot(row scanner, extra ...any) (core.Lot, error) {
	var (
		l                              core.Lot
		status                         string
		vehicleRent, advance, unloadHm decimal.NullDecimal
	)
	dest := append(extra,
		&l.ID, &l.TenantID, &l.FarmerID, &l.FarmerName, &l.BuyerID, &l.LotNumber, &l.NumberOfBags,
		&l.LotPrice, &status, &l.Grade, &l.Variety, &vehicleRent, &advance, &unloadHm,
		&l.CreatedAt,
	)
	if err := row.Scan(dest...); err != nil {
		return core.Lot{}, err
	}
	l.Status = core.LotStatus(status)
	l.VehicleRent = nullable(vehicleRent)
	l.Advance = nullable(advance)
	l.UnloadHamali = nullable(unloadHm)
	return l, nil
}

func (s *Store) queryLots(ctx context.Context, partyFilter string, q core.LotQuery) ([]core.Lot, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+lotColumns+`
		FROM lots l
		JOIN farmers f ON f.id = l.farmer_id
		WHERE `+partyFilter+` AND `+lotWindow+`
		ORDER BY l.id
	`, q.TenantID, q.PartyID, q.From, q.To, string(q.Status))
	if err != nil {
		return nil, fmt.Errorf("failed to query lots: %w", err)
	}
	defer rows.Close()

	var lots []core.Lot
	for rows.Next() {
		l, err := scanLot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lot: %w", err)
		}
		lots = append(lots, l)
	}
	return lots, rows.Err()
}

func (s *Store) ListFarmerLots(ctx context.Context, q core.LotQuery) ([]core.Lot, error) {
	return s.queryLots(ctx, "l.farmer_id = $2", q)
}

func (s *Store) ListBuyerLots(ctx context.Context, q core.LotQuery) ([]core.Lot, error) {
	return s.queryLots(ctx, "l.buyer_id = $2 AND NOT EXISTS ("+allocatedLot+")", q)
}

// allocatedLot matches lots split through lot_buyer_allocations; their direct buyer_id no
// longer bills anyone. Used as a NOT EXISTS subquery over alias l.
const allocatedLot = `SELECT 1 FROM lot_buyer_allocations a WHERE a.lot_id = l.id`

// ListBuyerAllocations validates each stored bag selection here, so the calculators only
// ever see FullLot or PartialAllocation (or an Err to report).
func (s *Store) ListBuyerAllocations(ctx context.Context, q core.LotQuery) ([]core.Allocation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT a.id, a.buyer_id, a.bag_selection, `+lotColumns+`
		FROM lot_buyer_allocations a
		JOIN lots l ON l.id = a.lot_id
		JOIN farmers f ON f.id = l.farmer_id
		WHERE a.buyer_id = $2 AND `+lotWindow+`
		ORDER BY l.id
	`, q.TenantID, q.PartyID, q.From, q.To, string(q.Status))
	if err != nil {
		return nil, fmt.Errorf("failed to query allocations: %w", err)
	}
	defer rows.Close()

	var out []core.Allocation
	for rows.Next() {
		var (
			a   core.Allocation
			raw []byte
		)
		lot, err := scanLot(rows, &a.ID, &a.BuyerID, &raw)
		if err != nil {
			return nil, fmt.Errorf("failed to scan allocation: %w", err)
		}
		a.Lot = lot
		a.LotID = lot.ID
		a.Selection, a.Err = core.ParseBagSelection(raw)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) ListBags(ctx context.Context, lotID int) ([]core.Bag, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, lot_id, bag_number, weight
		FROM bags
		WHERE lot_id = $1
		ORDER BY bag_number, id
	`, lotID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bags for lot %d: %w", lotID, err)
	}
	defer rows.Close()

	var bags []core.Bag
	for rows.Next() {
		var (
			b      core.Bag
			weight decimal.NullDecimal
		)
		if err := rows.Scan(&b.ID, &b.LotID, &b.BagNumber, &weight); err != nil {
			return nil, fmt.Errorf("failed to scan bag: %w", err)
		}
		b.Weight = nullable(weight)
		bags = append(bags, b)
	}
	return bags, rows.Err()
}

func (s *Store) queryIDs(ctx context.Context, query string, args ...any) ([]int, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) ListFarmerIDsWithLots(ctx context.Context, tenantID int, from, to time.Time) ([]int, error) {
	ids, err := s.queryIDs(ctx, `
		SELECT DISTINCT farmer_id
		FROM lots
		WHERE tenant_id = $1 AND created_at >= $2 AND created_at < $3
		  AND status = 'completed' AND lot_price > 0
		ORDER BY farmer_id
	`, tenantID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list farmers with lots: %w", err)
	}
	return ids, nil
}

func (s *Store) ListBuyerIDsWithLots(ctx context.Context, tenantID int, from, to time.Time) ([]int, error) {
	ids, err := s.queryIDs(ctx, `
		SELECT l.buyer_id
		FROM lots l
		WHERE l.tenant_id = $1 AND l.created_at >= $2 AND l.created_at < $3
		  AND l.status = 'completed' AND l.lot_price > 0 AND l.buyer_id IS NOT NULL
		  AND NOT EXISTS (`+allocatedLot+`)
		UNION
		SELECT a.buyer_id
		FROM lot_buyer_allocations a
		JOIN lots l ON l.id = a.lot_id
		WHERE l.tenant_id = $1 AND l.created_at >= $2 AND l.created_at < $3
		  AND l.status = 'completed' AND l.lot_price > 0
		ORDER BY 1
	`, tenantID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list buyers with lots: %w", err)
	}
	return ids, nil
}

const invoiceColumns = `id, invoice_number, document, created_at`

func scanInvoice(row scanner) (core.TaxInvoice, error) {
	var (
		inv       core.TaxInvoice
		id        int
		number    string
		document  []byte
		createdAt time.Time
	)
	if err := row.Scan(&id, &number, &document, &createdAt); err != nil {
		return core.TaxInvoice{}, err
	}
	if err := json.Unmarshal(document, &inv); err != nil {
		return core.TaxInvoice{}, fmt.Errorf("failed to decode invoice %d: %w", id, err)
	}
	inv.ID = id
	inv.InvoiceNumber = number
	inv.CreatedAt = createdAt
	return inv, nil
}

func (s *Store) ListInvoices(ctx context.Context, tenantID, buyerID int, from, to time.Time) ([]core.TaxInvoice, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+invoiceColumns+`
		FROM tax_invoices
		WHERE tenant_id = $1 AND buyer_id = $2 AND invoice_date >= $3 AND invoice_date < $4
		ORDER BY id
	`, tenantID, buyerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer rows.Close()

	var out []core.TaxInvoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// SaveInvoice serializes writers per (tenant, buyer) with a transaction-scoped advisory
// lock, so the idempotency lookup, the lot overlap check and the day sequence all see a
// stable view. The unique constraint on tax_invoice_lots backs the overlap check.
func (s *Store) SaveInvoice(ctx context.Context, inv *core.TaxInvoice) (*core.TaxInvoice, bool, error) {
	invoiceDate, err := time.Parse("2006-01-02", inv.InvoiceDate)
	if err != nil {
		return nil, false, fmt.Errorf("invalid invoice date %q: %w", inv.InvoiceDate, err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1, $2)", int32(inv.TenantID), int32(inv.BuyerID)); err != nil {
		return nil, false, fmt.Errorf("failed to lock buyer %d: %w", inv.BuyerID, err)
	}

	existing, err := scanInvoice(tx.QueryRow(ctx, `
		SELECT `+invoiceColumns+` FROM tax_invoices WHERE idempotency_key = $1
	`, inv.IdempotencyKey))
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to check idempotency key: %w", err)
	}

	var billedLot int
	err = tx.QueryRow(ctx, `
		SELECT lot_id FROM tax_invoice_lots
		WHERE tenant_id = $1 AND buyer_id = $2 AND lot_id = ANY($3::int[])
		LIMIT 1
	`, inv.TenantID, inv.BuyerID, inv.LotIDs).Scan(&billedLot)
	if err == nil {
		return nil, false, fmt.Errorf("%w: lot %d", core.ErrLotsAlreadyInvoiced, billedLot)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to check invoiced lots: %w", err)
	}

	var sameDay int
	if err := tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM tax_invoices
		WHERE tenant_id = $1 AND buyer_id = $2 AND invoice_date = $3
	`, inv.TenantID, inv.BuyerID, invoiceDate).Scan(&sameDay); err != nil {
		return nil, false, fmt.Errorf("failed to count invoices: %w", err)
	}

	saved := *inv
	saved.InvoiceNumber = core.FormatInvoiceNumber(inv.InvoiceDate, inv.BuyerID, sameDay+1)
	document, err := json.Marshal(saved)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode invoice: %w", err)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO tax_invoices (tenant_id, buyer_id, invoice_number, invoice_date, total_amount, idempotency_key, document)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, saved.TenantID, saved.BuyerID, saved.InvoiceNumber, invoiceDate,
		saved.Calculations.TotalAmount, saved.IdempotencyKey, document).Scan(&saved.ID, &saved.CreatedAt)
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert invoice: %w", err)
	}

	for _, lotID := range saved.LotIDs {
		_, err := tx.Exec(ctx, `
			INSERT INTO tax_invoice_lots (invoice_id, tenant_id, buyer_id, lot_id)
			VALUES ($1, $2, $3, $4)
		`, saved.ID, saved.TenantID, saved.BuyerID, lotID)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
				return nil, false, fmt.Errorf("%w: lot %d", core.ErrLotsAlreadyInvoiced, lotID)
			}
			return nil, false, fmt.Errorf("failed to reserve lot %d: %w", lotID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &saved, true, nil
}
