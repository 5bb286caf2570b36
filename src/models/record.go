// src/models/record.go
package models

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	DefaultSpecialCount = 7
	DefaultCheckCount   = 30
	MinCheckCount       = 5
	MaxCheckCount       = 200

	// DefaultDate is used when the date field is left empty.
	DefaultDate = "1970-01-01"

	ZeroCount    = "0"
	ZeroCurrency = "0.00"

	// MaxCount and MaxAmount bound a single field so every total stays exact to the cent.
	MaxCount  = 1_000_000_000
	MaxAmount = 10_000_000_000
)

// Bill and coin denominations, in display and column order.
var (
	BillDenominations = [6]int64{100, 50, 20, 10, 5, 1}
	BillColumns       = [6]string{"bills_100", "bills_50", "bills_20", "bills_10", "bills_5", "bills_1"}
	BillLabels        = [6]string{"$100 Bills", "$50 Bills", "$20 Bills", "$10 Bills", "$5 Bills", "$1 Bills"}

	CoinDenominations = [5]float64{1.00, 0.25, 0.10, 0.05, 0.01}
	CoinColumns       = [5]string{"coins_100", "coins_25", "coins_10", "coins_5", "coins_1"}
	CoinLabels        = [5]string{"$1 Coins", "Quarters", "Dimes", "Nickels", "Pennies"}
)

// FieldValues holds the raw text of every numeric entry on one record.
// Specials and Checks are positional: index i is spec{i+1} and checks_{i}.
type FieldValues struct {
	Bills    [6]string `json:"bills"`
	Coins    [5]string `json:"coins"`
	Specials []string  `json:"specials"`
	Checks   []string  `json:"checks"`
}

// Clone returns a deep copy safe to hand to another goroutine.
func (f FieldValues) Clone() FieldValues {
	out := FieldValues{Bills: f.Bills, Coins: f.Coins}
	out.Specials = append([]string(nil), f.Specials...)
	out.Checks = append([]string(nil), f.Checks...)
	return out
}

// StoredTotals is the derived-totals cache persisted alongside the raw data.
// It is never the source of truth.
type StoredTotals struct {
	QuantityOfChecks         string `json:"quantity_of_checks"`
	BillsTotal               string `json:"bills_total"`
	CoinsTotal               string `json:"coins_total"`
	TotalDesignatedOfferings string `json:"total_designated_offerings"`
	ChecksTotal              string `json:"checks_total"`
	TotalDeposit             string `json:"total_deposit"`
}

// Record is one weekly offering count.
type Record struct {
	ID         int64  `json:"id"`
	Date       string `json:"date"`
	PreparedBy string `json:"prepared_by"`
	FieldValues
	Notes  string       `json:"notes"`
	Totals StoredTotals `json:"totals"`
}

// DateEntry pairs a record date with its id, in store order.
type DateEntry struct {
	Date string `json:"date"`
	ID   int64  `json:"id"`
}

// DepositPoint is one (date, total deposit) sample used for deposit history.
type DepositPoint struct {
	ID           int64   `json:"id"`
	Date         string  `json:"date"`
	TotalDeposit float64 `json:"total_deposit"`
}

// NewRecord builds a record with every numeric field zeroed.
func NewRecord(id int64, date string, specialCount, checkCount int) *Record {
	r := &Record{ID: id, Date: date}
	for i := range r.Bills {
		r.Bills[i] = ZeroCount
	}
	for i := range r.Coins {
		r.Coins[i] = ZeroCount
	}
	r.Specials = filled(specialCount, ZeroCurrency)
	r.Checks = filled(checkCount, ZeroCurrency)
	r.Totals = StoredTotals{
		QuantityOfChecks:         ZeroCount,
		BillsTotal:               ZeroCurrency,
		CoinsTotal:               ZeroCurrency,
		TotalDesignatedOfferings: ZeroCurrency,
		ChecksTotal:              ZeroCurrency,
		TotalDeposit:             ZeroCurrency,
	}
	return r
}

func filled(n int, v string) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	c := *r
	c.FieldValues = r.FieldValues.Clone()
	return &c
}

// ResizeChecks pads with zero amounts or truncates so the record has n check slots.
func (r *Record) ResizeChecks(n int) {
	r.Checks = resize(r.Checks, n)
}

// ResizeSpecials pads or truncates the special designation slots.
func (r *Record) ResizeSpecials(n int) {
	r.Specials = resize(r.Specials, n)
}

func resize(values []string, n int) []string {
	if len(values) >= n {
		return values[:n]
	}
	return append(values, filled(n-len(values), ZeroCurrency)...)
}

// FieldKind classifies an addressable record field.
type FieldKind int

const (
	FieldDate FieldKind = iota
	FieldPreparedBy
	FieldBill
	FieldCoin
	FieldSpecial
	FieldCheck
	FieldNotes
)

// FieldRef addresses one field of a record by kind and position.
type FieldRef struct {
	Kind  FieldKind
	Index int
}

// Column returns the storage column name of the field.
func (f FieldRef) Column() string {
	switch f.Kind {
	case FieldDate:
		return "date"
	case FieldPreparedBy:
		return "prepared_by"
	case FieldBill:
		return BillColumns[f.Index]
	case FieldCoin:
		return CoinColumns[f.Index]
	case FieldSpecial:
		return SpecialColumn(f.Index)
	case FieldCheck:
		return CheckColumn(f.Index)
	case FieldNotes:
		return "notes"
	}
	return ""
}

// IsCount reports whether the field holds an integer denomination count.
func (f FieldRef) IsCount() bool { return f.Kind == FieldBill || f.Kind == FieldCoin }

// IsCurrency reports whether the field holds a currency amount.
func (f FieldRef) IsCurrency() bool { return f.Kind == FieldSpecial || f.Kind == FieldCheck }

// SpecialColumn names the i-th (zero based) special designation column.
func SpecialColumn(i int) string { return "spec" + strconv.Itoa(i+1) }

// CheckColumn names the i-th (zero based) check column.
func CheckColumn(i int) string { return "checks_" + strconv.Itoa(i) }

// ParseFieldRef resolves a column name such as "bills_20", "spec3" or "checks_0".
func ParseFieldRef(name string) (FieldRef, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "date":
		return FieldRef{Kind: FieldDate}, nil
	case "prepared_by":
		return FieldRef{Kind: FieldPreparedBy}, nil
	case "notes":
		return FieldRef{Kind: FieldNotes}, nil
	}
	for i, col := range BillColumns {
		if name == col {
			return FieldRef{Kind: FieldBill, Index: i}, nil
		}
	}
	for i, col := range CoinColumns {
		if name == col {
			return FieldRef{Kind: FieldCoin, Index: i}, nil
		}
	}
	if rest, ok := strings.CutPrefix(name, "checks_"); ok {
		if n, err := strconv.Atoi(rest); err == nil && n >= 0 {
			return FieldRef{Kind: FieldCheck, Index: n}, nil
		}
	}
	if rest, ok := strings.CutPrefix(name, "spec"); ok {
		if n, err := strconv.Atoi(rest); err == nil && n >= 1 {
			return FieldRef{Kind: FieldSpecial, Index: n - 1}, nil
		}
	}
	return FieldRef{}, fmt.Errorf("unknown field %q", name)
}

// Get returns the text of the addressed field.
func (r *Record) Get(f FieldRef) (string, error) {
	p, err := r.slot(f)
	if err != nil {
		return "", err
	}
	return *p, nil
}

// Set overwrites the text of the addressed field.
func (r *Record) Set(f FieldRef, value string) error {
	p, err := r.slot(f)
	if err != nil {
		return err
	}
	*p = value
	return nil
}

func (r *Record) slot(f FieldRef) (*string, error) {
	switch f.Kind {
	case FieldDate:
		return &r.Date, nil
	case FieldPreparedBy:
		return &r.PreparedBy, nil
	case FieldNotes:
		return &r.Notes, nil
	case FieldBill:
		if f.Index >= 0 && f.Index < len(r.Bills) {
			return &r.Bills[f.Index], nil
		}
	case FieldCoin:
		if f.Index >= 0 && f.Index < len(r.Coins) {
			return &r.Coins[f.Index], nil
		}
	case FieldSpecial:
		if f.Index >= 0 && f.Index < len(r.Specials) {
			return &r.Specials[f.Index], nil
		}
	case FieldCheck:
		if f.Index >= 0 && f.Index < len(r.Checks) {
			return &r.Checks[f.Index], nil
		}
	}
	return nil, fmt.Errorf("field %s is out of range for this record", f.Column())
}
