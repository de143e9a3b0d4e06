package listing

import (
	"regexp"
	"strconv"
	"strings"
)

var salaryRun = regexp.MustCompile(`[0-9.,]+`)

// ExtractSalary turns a salary display string into a sort key. The last
// numeric run wins, so a range sorts by its upper bound. '.' is a thousands
// separator and the first ',' the decimal point. Anything unparseable is 0.
func ExtractSalary(s string) float64 {
	runs := salaryRun.FindAllString(s, -1)
	if len(runs) == 0 {
		return 0
	}
	num := strings.Replace(strings.ReplaceAll(runs[len(runs)-1], ".", ""), ",", ".", 1)
	return parseLeadingFloat(num)
}

// parseLeadingFloat parses the longest "digits[.digits]" prefix of s, so
// "12.5.3" yields 12.5 instead of an error.
func parseLeadingFloat(s string) float64 {
	end, digits := 0, 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
		digits++
	}
	if end < len(s) && s[end] == '.' {
		frac := end + 1
		for frac < len(s) && s[frac] >= '0' && s[frac] <= '9' {
			frac++
			digits++
		}
		end = frac
	}
	if digits == 0 {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s[:end], "."), 64)
	if err != nil {
		return 0
	}
	return v
}
