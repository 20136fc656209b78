package extract

import "strings"

// Unit markers found after amounts in Chinese filings.
const (
	UnitHundredMillion = "亿"
	UnitTenThousand    = "万"
	UnitYuan           = "元"
)

// Normalize converts an amount to 亿元 based on the unit text that followed
// it. The first marker found wins: 亿 is kept as is, 万 divides by 1e4 and
// a bare 元 by 1e8. Unknown units are returned unchanged.
func Normalize(value *float64, unitText string) *float64 {
	if value == nil {
		return nil
	}
	v := *value
	switch {
	case strings.Contains(unitText, UnitHundredMillion):
	case strings.Contains(unitText, UnitTenThousand):
		v = v / 10000
	case strings.Contains(unitText, UnitYuan):
		v = v / 100000000
	}
	return &v
}
