package storage

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestDateScan(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		src     any
		want    string
		wantErr error
	}{
		{name: "text date", src: "2023-04-05", want: "2023-04-05"},
		{name: "bytes date", src: []byte("2023-04-05"), want: "2023-04-05"},
		{name: "timestamp text", src: "2023-04-05T10:11:12Z", want: "2023-04-05"},
		{name: "time value", src: time.Date(2023, 4, 5, 23, 59, 0, 0, time.UTC), want: "2023-04-05"},
		{name: "null", src: nil, want: ""},
		{name: "garbage", src: "yesterday", wantErr: ErrInvalidDate},
		{name: "unsupported type", src: 42, wantErr: ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var d Date
			err := d.Scan(tt.src)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error mismatch: want %v, got %v", tt.wantErr, err)
			}
			if tt.wantErr != nil {
				return
			}
			if d.String() != tt.want {
				t.Errorf("want %q, got %q", tt.want, d.String())
			}
		})
	}
}

func TestDateValueAndJSON(t *testing.T) {
	t.Parallel()

	d, err := ParseDate("2024-02-29")
	if err != nil {
		t.Fatalf("ParseDate failed: %v", err)
	}

	v, err := d.Value()
	if err != nil || v != "2024-02-29" {
		t.Fatalf("Value: got %v, %v", v, err)
	}

	b, err := json.Marshal(struct{ D Date }{d})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(b) != `{"D":"2024-02-29"}` {
		t.Errorf("unexpected json %s", b)
	}

	var back struct{ D Date }
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if back.D.Compare(d) != 0 {
		t.Errorf("round trip mismatch: %s vs %s", back.D, d)
	}
}

func TestNewDateDropsClock(t *testing.T) {
	t.Parallel()

	a := NewDate(time.Date(2024, 1, 2, 1, 0, 0, 0, time.UTC))
	b := NewDate(time.Date(2024, 1, 2, 22, 30, 0, 0, time.UTC))
	if a.Compare(b) != 0 {
		t.Errorf("same calendar day should compare equal: %v vs %v", a, b)
	}
}
