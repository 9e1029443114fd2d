package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDateLayouts(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2020-01-01", "2020-01-01", true},
		{" 2021-06-30 ", "2021-06-30", true},
		{"2022-03-04T10:00:00Z", "2022-03-04", true},
		{"2022-03-04 10:00:00", "2022-03-04", true},
		{"2022/03/04", "2022-03-04", true},
		{"03/04/2022", "2022-03-04", true},
		{"", "", false},
		{"not-a-date", "", false},
		{"2022-13-40", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseDate(tc.in)
		if ok != tc.ok {
			t.Fatalf("ParseDate(%q) ok=%v want %v", tc.in, ok, tc.ok)
		}
		if got.String() != tc.want {
			t.Fatalf("ParseDate(%q)=%q want %q", tc.in, got.String(), tc.want)
		}
		if got.Valid() != tc.ok {
			t.Fatalf("ParseDate(%q) validity mismatch", tc.in)
		}
	}
}

func TestNullDateNeverCompares(t *testing.T) {
	bound := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	if NullDate.AtOrAfter(bound) || NullDate.AtOrBefore(bound) || NullDate.Before(bound) || NullDate.After(bound) {
		t.Fatalf("null date must not compare to any bound")
	}
	d := MustDate("2020-01-01")
	if !d.AtOrAfter(bound) || !d.AtOrBefore(bound) {
		t.Fatalf("bounds are inclusive")
	}
	if d.Before(bound) || d.After(bound) {
		t.Fatalf("strict comparisons must exclude equality")
	}
}

func TestDateJSON(t *testing.T) {
	payload := struct {
		A Date `json:"a"`
		B Date `json:"b"`
	}{A: MustDate("2024-02-29"), B: NullDate}
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"a":"2024-02-29","b":null}` {
		t.Fatalf("unexpected json %s", raw)
	}
	var back struct {
		A Date `json:"a"`
		B Date `json:"b"`
		C Date `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a":"2024-02-29","b":null,"c":"garbage"}`), &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.A != payload.A || back.B.Valid() || back.C.Valid() {
		t.Fatalf("unexpected decode %+v", back)
	}
	if err := json.Unmarshal([]byte(`{"a":12}`), &back); err == nil {
		t.Fatalf("expected error for numeric date")
	}
}

func TestMustDatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	_ = MustDate("yesterday")
}
