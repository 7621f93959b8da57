package healthplanet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"myweight/internal/domain"
)

type innerScanResponse struct {
	BirthDate string   `json:"birth_date"`
	Height    string   `json:"height"`
	Sex       string   `json:"sex"`
	Data      []record `json:"data"`
}

// record is one measurement as the provider returns it. Date is YYYYMMDD,
// optionally followed by HHmm.
type record struct {
	Date    flexString `json:"date"`
	KeyData flexString `json:"keydata"`
	Model   string     `json:"model"`
	Tag     flexString `json:"tag"`
}

// flexString accepts a JSON string or a bare JSON number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(b)
	return nil
}

// toWeightRecords filters weight records, reverses the provider's
// newest-first order and normalizes each record.
func toWeightRecords(in []record) ([]domain.WeightRecord, error) {
	out := make([]domain.WeightRecord, 0, len(in))
	for i := len(in) - 1; i >= 0; i-- {
		rec := in[i]
		if rec.Tag != "" && string(rec.Tag) != domain.TagWeight {
			continue
		}
		date, err := formatDate(string(rec.Date))
		if err != nil {
			return nil, err
		}
		weight, err := parseWeight(string(rec.KeyData))
		if err != nil {
			return nil, err
		}
		out = append(out, domain.WeightRecord{Date: date, Weight: weight})
	}
	return out, nil
}

// formatDate turns YYYYMMDD[...] into YYYY/MM/DD. Out-of-range days and
// months roll over the way a calendar constructor does.
func formatDate(s string) (string, error) {
	if len(s) < 8 {
		return "", fmt.Errorf("malformed measurement date %q", s)
	}
	for _, c := range s[:8] {
		if c < '0' || c > '9' {
			return "", fmt.Errorf("malformed measurement date %q", s)
		}
	}
	year, _ := strconv.Atoi(s[0:4])
	month, _ := strconv.Atoi(s[4:6])
	day, _ := strconv.Atoi(s[6:8])
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Format("2006/01/02"), nil
}

func parseWeight(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("malformed weight value %q", s)
	}
	return v, nil
}
