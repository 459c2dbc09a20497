// internal/engine/locations.go
package engine

import "strings"

// UnsupportedCity marks transactions whose department code does not map to
// a supported region. Such rows are excluded from every output.
const UnsupportedCity = "Others"

// deptRegions maps plain department codes to their region names. Code "A"
// is handled separately because it splits on the customer name.
var deptRegions = map[string]string{
	"B": "B - JKT",
	"C": "C - PUSAT",
	"D": "D - SMG",
	"E": "E - JOG",
	"F": "F - MLG",
	"G": "G - PROJECT",
	"H": "H - BALI",
}

// itcCustomers are the cash-sale and marketplace customers that route
// department "A" transactions to the ITC sub-region instead of RETAIL.
var itcCustomers = map[string]bool{
	"A - CASH":                       true,
	"AIRPAY INTERNATIONAL INDONESIA": true,
	"TOKOPEDIA":                      true,
}

// regionCities maps region names to their city.
var regionCities = map[string]string{
	"A - ITC":     "Surabaya",
	"A - RETAIL":  "Surabaya",
	"C - PUSAT":   "Surabaya",
	"G - PROJECT": "Surabaya",
	"B - JKT":     "Jakarta",
	"D - SMG":     "Semarang",
	"E - JOG":     "Jogja",
	"F - MLG":     "Malang",
	"H - BALI":    "Bali",
}

// mapRegion resolves the region for a transaction from its department code
// and customer name.
func mapRegion(dept, customer string) string {
	dept = strings.ToUpper(strings.TrimSpace(dept))
	if dept == "A" {
		if itcCustomers[strings.ToUpper(strings.TrimSpace(customer))] {
			return "A - ITC"
		}
		return "A - RETAIL"
	}
	if region, ok := deptRegions[dept]; ok {
		return region
	}
	return ""
}

// MapCity resolves the city for a transaction, returning UnsupportedCity
// for department codes outside the supported mapping.
func MapCity(dept, customer string) string {
	if city, ok := regionCities[mapRegion(dept, customer)]; ok {
		return city
	}
	return UnsupportedCity
}
