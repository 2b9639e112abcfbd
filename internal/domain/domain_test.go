package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTimestamp_UnmarshalFormats(t *testing.T) {
	want := time.Date(2024, 3, 5, 10, 30, 15, 123000000, time.UTC)
	cases := []string{
		`"2024-03-05T10:30:15.123Z"`,
		`"2024-03-05T10:30:15.123"`,
		`"2024-03-05 10:30:15.123"`,
		`"2024-03-05T12:30:15.123+02:00"`,
	}
	for _, raw := range cases {
		var ts Timestamp
		if err := json.Unmarshal([]byte(raw), &ts); err != nil {
			t.Fatalf("unmarshal %s: %v", raw, err)
		}
		if !ts.Equal(want) {
			t.Fatalf("unmarshal %s: got %v want %v", raw, ts.Time, want)
		}
	}
}

func TestTimestamp_NullAndEmpty(t *testing.T) {
	for _, raw := range []string{`null`, `""`} {
		var ts Timestamp
		if err := json.Unmarshal([]byte(raw), &ts); err != nil {
			t.Fatalf("unmarshal %s: %v", raw, err)
		}
		if !ts.IsZero() {
			t.Fatalf("expected zero for %s", raw)
		}
	}
	out, err := json.Marshal(Timestamp{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != "null" {
		t.Fatalf("expected null, got %s", out)
	}
}

func TestTimestamp_RejectsGarbage(t *testing.T) {
	var ts Timestamp
	if err := json.Unmarshal([]byte(`"yesterday"`), &ts); err == nil {
		t.Fatalf("expected error")
	}
	if err := json.Unmarshal([]byte(`12`), &ts); err == nil {
		t.Fatalf("expected error for number")
	}
}

func TestCartClone_DoesNotShareItems(t *testing.T) {
	updated := NewTimestamp(time.Now())
	orig := &Cart{
		UserID:      "u1",
		Items:       []CartItem{{ProductID: "p1", Quantity: 2, Price: 10, Subtotal: 20}},
		TotalAmount: 20,
		UpdatedAt:   &updated,
	}
	cp := orig.Clone()
	cp.Items[0].Quantity = 9
	cp.UpdatedAt.Time = time.Time{}
	if orig.Items[0].Quantity != 2 {
		t.Fatalf("clone shares items slice")
	}
	if orig.UpdatedAt.IsZero() {
		t.Fatalf("clone shares updated_at")
	}
	if orig.ItemCount() != 2 {
		t.Fatalf("expected item count 2, got %d", orig.ItemCount())
	}
	var nilCart *Cart
	if nilCart.Clone() != nil || nilCart.ItemCount() != 0 {
		t.Fatalf("nil cart helpers misbehave")
	}
}
