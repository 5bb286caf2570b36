package models

import (
	"errors"
	"testing"
)

func TestNewRecordDefaults(t *testing.T) {
	r := NewRecord(1, "2024-03-03", DefaultSpecialCount, DefaultCheckCount)
	if len(r.Specials) != 7 || len(r.Checks) != 30 {
		t.Fatalf("unexpected slot counts: %d specials, %d checks", len(r.Specials), len(r.Checks))
	}
	for i, b := range r.Bills {
		if b != ZeroCount {
			t.Errorf("bill %d = %q, want %q", i, b, ZeroCount)
		}
	}
	if r.Checks[29] != ZeroCurrency {
		t.Errorf("last check = %q", r.Checks[29])
	}
	if r.Totals.TotalDeposit != ZeroCurrency {
		t.Errorf("total deposit = %q", r.Totals.TotalDeposit)
	}
}

func TestParseFieldRef(t *testing.T) {
	tests := []struct {
		name    string
		want    FieldRef
		wantErr bool
	}{
		{"bills_100", FieldRef{Kind: FieldBill, Index: 0}, false},
		{"coins_1", FieldRef{Kind: FieldCoin, Index: 4}, false},
		{"spec1", FieldRef{Kind: FieldSpecial, Index: 0}, false},
		{"checks_0", FieldRef{Kind: FieldCheck, Index: 0}, false},
		{" Notes ", FieldRef{Kind: FieldNotes}, false},
		{"spec0", FieldRef{}, true},
		{"checks_-1", FieldRef{}, true},
		{"bills_3", FieldRef{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFieldRef(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFieldRef(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseFieldRef(%q) = %+v, want %+v", tt.name, got, tt.want)
			}
			if !tt.wantErr && got.Column() != normalized(tt.name) {
				t.Errorf("Column() = %q, want %q", got.Column(), normalized(tt.name))
			}
		})
	}
}

func normalized(s string) string {
	if s == " Notes " {
		return "notes"
	}
	return s
}

func TestRecordSetGetRange(t *testing.T) {
	r := NewRecord(1, "2024-01-07", 7, 5)
	ref := FieldRef{Kind: FieldCheck, Index: 4}
	if err := r.Set(ref, "12.00"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, _ := r.Get(ref); v != "12.00" {
		t.Errorf("Get = %q", v)
	}
	if err := r.Set(FieldRef{Kind: FieldCheck, Index: 5}, "1"); err == nil {
		t.Error("expected out of range error")
	}
}

func TestCloneIsDeep(t *testing.T) {
	r := NewRecord(1, "2024-01-07", 7, 5)
	c := r.Clone()
	c.Checks[0] = "99.00"
	c.Specials[0] = "1.00"
	if r.Checks[0] != ZeroCurrency || r.Specials[0] != ZeroCurrency {
		t.Error("clone shares slices with the original")
	}
}

func TestResizeChecks(t *testing.T) {
	r := NewRecord(1, "2024-01-07", 7, 5)
	r.Checks[4] = "5.00"
	r.ResizeChecks(8)
	if len(r.Checks) != 8 || r.Checks[7] != ZeroCurrency || r.Checks[4] != "5.00" {
		t.Errorf("grow: %v", r.Checks)
	}
	r.ResizeChecks(3)
	if len(r.Checks) != 3 {
		t.Errorf("shrink: %v", r.Checks)
	}
}

func TestErrorWrapping(t *testing.T) {
	base := errors.New("disk full")
	err := error(&StorageError{Op: "update", Err: base})
	if !errors.Is(err, base) {
		t.Error("StorageError should unwrap to its cause")
	}
	if !IsParseError(&ParseError{Field: "checks_0", Value: "abc", Reason: "not a number"}) {
		t.Error("IsParseError should detect *ParseError")
	}
}

func TestTotalsStored(t *testing.T) {
	s := Totals{Bills: 287, Coins: 4.31, Special: 0, Checks: 1234.5, CheckCount: 2, Grand: 1525.81}.Stored()
	if s.BillsTotal != "287.00" || s.CoinsTotal != "4.31" || s.ChecksTotal != "1,234.50" ||
		s.QuantityOfChecks != "2" || s.TotalDeposit != "1,525.81" {
		t.Errorf("unexpected stored totals: %+v", s)
	}
}
