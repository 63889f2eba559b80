package extract

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexValue is a string-backed value that unmarshals from either a JSON
// string or a JSON number. The extraction service is inconsistent about
// which it returns for monetary fields; both end up here verbatim and
// are only typed by the normalizer.
type FlexValue string

func (v *FlexValue) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*v = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*v = FlexValue(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return fmt.Errorf("flex value: expected string or number, got %s", s)
	}
	*v = FlexValue(num.String())
	return nil
}

func (v FlexValue) String() string { return string(v) }

// IsEmpty reports whether no value was extracted.
func (v FlexValue) IsEmpty() bool { return strings.TrimSpace(string(v)) == "" }

// FromFloat renders a numeric value the way the heuristic extractor
// found it in the text, without reformatting.
func FromFloat(f float64) FlexValue {
	return FlexValue(strconv.FormatFloat(f, 'f', -1, 64))
}
