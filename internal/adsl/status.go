// SPDX-License-Identifier: MPL-2.0

package adsl

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	enabledRe = regexp.MustCompile(`>Аккаунт</td>\s*<td class='right'><b>Включен<`)
	accountRe = regexp.MustCompile(`Осталось трафика на сумму</td>\s*<td class='right'><b>(-?[0-9 ]+)`)
	daysRe    = regexp.MustCompile(`осталось <b>(-?\d+) д`)
	priceRe   = regexp.MustCompile(`тариф</td>\s*<td class='right'><b>(\d+) `)
	creditRe  = regexp.MustCompile(`кредит</td>\s*<td class='right'><b>(\d+)%`)
)

// AccountInfo is the parsed statistics page.
type AccountInfo struct {
	Enabled bool
	// Account is the remaining balance in roubles.
	Account int
	// Days is the number of days the balance lasts at the current rate.
	Days int
	// Price is the tariff per mebibyte in roubles.
	Price int
	// Credit is the allowed overdraft percentage, nil when the page has none.
	Credit *int
}

// ParseStatus extracts the account state from a decoded statistics page.
// Numbers that cannot be found are reported as 0.
func ParseStatus(page string) AccountInfo {
	info := AccountInfo{
		Enabled: enabledRe.MatchString(page),
		Account: intCapture(accountRe, page),
		Days:    intCapture(daysRe, page),
		Price:   intCapture(priceRe, page),
	}
	if m := creditRe.FindStringSubmatch(page); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			info.Credit = &v
		}
	}
	return info
}

func intCapture(re *regexp.Regexp, s string) int {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	// Thousands are separated by spaces on the page.
	v, err := strconv.Atoi(strings.ReplaceAll(m[1], " ", ""))
	if err != nil {
		return 0
	}
	return v
}

func (a AccountInfo) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Enabled: %t\n", a.Enabled)
	fmt.Fprintf(&sb, "Account: %d rub\n", a.Account)
	fmt.Fprintf(&sb, "Days left: %d\n", a.Days)
	fmt.Fprintf(&sb, "Price per Mib: %d rub\n", a.Price)
	if a.Credit != nil {
		fmt.Fprintf(&sb, "Allowed credit: %d%%\n", *a.Credit)
	}
	return sb.String()
}
