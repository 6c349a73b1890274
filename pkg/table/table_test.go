package table

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
)

func sampleRecords() []PairRecord {
	return []PairRecord{
		{
			PairAddress:   "0xB4e16d0168e52d35CaCD2c6185b44281Ec28C9Dc",
			PairName:      "Uniswap V2",
			Token0Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
			Token0Name:    "USD Coin",
			Token1Address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
			Token1Name:    "Wrapped Ether",
		},
		{
			PairAddress:   "0x3139Ffc91B99aa94DA8A2dc13f1fC36F9BDc98eE",
			PairName:      "Uniswap V2",
			Token0Address: "0x8E870D67F660D95d5be530380D0eC0bd388289E1",
			Token0Name:    "NotFound",
			Token1Address: "0xdAC17F958D2ee523a2206206994597C13D831ec7",
			Token1Name:    "Tether, \"USD\"",
		},
	}
}

func TestTable_Append(t *testing.T) {
	tbl := New()
	if tbl.Len() != 0 {
		t.Errorf("Len() = %d, want 0", tbl.Len())
	}

	records := sampleRecords()
	tbl.Append(records[0])
	tbl.Append(records[1:]...)
	tbl.Append()

	if tbl.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", tbl.Len())
	}
	for i, want := range records {
		got, ok := tbl.Row(i)
		if !ok || got != want {
			t.Errorf("Row(%d) = %+v, want %+v", i, got, want)
		}
	}
	if _, ok := tbl.Row(2); ok {
		t.Error("Row(2) should be out of range")
	}
}

func TestTable_RowsIsCopy(t *testing.T) {
	tbl := New()
	tbl.Append(sampleRecords()...)

	rows := tbl.Rows()
	rows[0].PairName = "changed"

	if got, _ := tbl.Row(0); got.PairName != "Uniswap V2" {
		t.Errorf("Rows() must not expose internal storage, got %q", got.PairName)
	}
}

func TestTable_ConcurrentAppend(t *testing.T) {
	tbl := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tbl.Append(sampleRecords()...)
		}()
	}
	wg.Wait()

	if tbl.Len() != 100 {
		t.Errorf("Len() = %d, want 100", tbl.Len())
	}
}

func TestPairRecord_Values(t *testing.T) {
	r := sampleRecords()[0]
	v := r.Values()
	if len(v) != len(Columns) {
		t.Fatalf("len(Values()) = %d, want %d", len(v), len(Columns))
	}
	if recordFromValues(v) != r {
		t.Error("recordFromValues(Values()) should return the original record")
	}
}

func TestCSV_RoundTrip(t *testing.T) {
	withNames := func(pairName, token0Name, token1Name string) []PairRecord {
		r := sampleRecords()[0]
		r.PairName = pairName
		r.Token0Name = token0Name
		r.Token1Name = token1Name
		return []PairRecord{r}
	}

	tests := []struct {
		name    string
		records []PairRecord
	}{
		{name: "sample", records: sampleRecords()},
		{name: "crlf", records: withNames("Line\r\nBreak", "a\r\n", "\r\nb")},
		{name: "lone_cr", records: withNames("Line\rBreak", "\r", "x\r")},
		{name: "backslashes", records: withNames(`C:\r`, `\`, `back\\r`)},
		{name: "mixed", records: withNames("\\\r\n", "lf\nonly", " lead, \"q\"\r")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := New()
			tbl.Append(tt.records...)

			var buf bytes.Buffer
			if err := tbl.WriteCSV(&buf); err != nil {
				t.Fatalf("WriteCSV() error = %v", err)
			}

			if !strings.HasPrefix(buf.String(), "pair_address,pair_name,token0_address,token0_name,token1_address,token1_name\n") {
				t.Errorf("unexpected header in %q", buf.String())
			}

			parsed, err := ReadCSV(&buf)
			if err != nil {
				t.Fatalf("ReadCSV() error = %v", err)
			}

			want := tbl.Rows()
			got := parsed.Rows()
			if len(got) != len(want) {
				t.Fatalf("parsed %d rows, want %d", len(got), len(want))
			}
			for i := range want {
				if got[i] != want[i] {
					t.Errorf("row %d = %+v, want %+v", i, got[i], want[i])
				}
			}
		})
	}
}

func TestWriteCSV_EscapesCarriageReturn(t *testing.T) {
	tbl := New()
	r := sampleRecords()[0]
	r.PairName = "a\r\nb"
	tbl.Append(r)

	var buf bytes.Buffer
	if err := tbl.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	if strings.Contains(buf.String(), "\r") {
		t.Errorf("output contains a raw carriage return: %q", buf.String())
	}
	if !strings.Contains(buf.String(), `a\r`) {
		t.Errorf("output missing escaped name: %q", buf.String())
	}
}

func TestCSV_EmptyTable(t *testing.T) {
	var buf bytes.Buffer
	if err := New().WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	parsed, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	if parsed.Len() != 0 {
		t.Errorf("Len() = %d, want 0", parsed.Len())
	}
}

func TestReadCSV_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantErrIs error
	}{
		{
			name:      "empty",
			input:     "",
			wantErrIs: ErrInvalidHeader,
		},
		{
			name:      "wrong_header",
			input:     "a,b,c,d,e,f\n",
			wantErrIs: ErrInvalidHeader,
		},
		{
			name:  "short_row",
			input: strings.Join(Columns, ",") + "\n0x1,name\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("ReadCSV() should fail")
			}
			if tt.wantErrIs != nil && !errors.Is(err, tt.wantErrIs) {
				t.Errorf("error = %v, want %v", err, tt.wantErrIs)
			}
		})
	}
}
