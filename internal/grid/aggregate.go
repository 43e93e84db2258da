package grid

import (
	"fmt"
	"math"
	"strconv"

	"jobtrack/internal/records/models"
	"jobtrack/internal/schema"
)

// Operator is a footer aggregate
type Operator string

const (
	OpNone        Operator = "none"
	OpCount       Operator = "count"
	OpCountValues Operator = "count_values"
	OpCountEmpty  Operator = "count_empty"
	OpUnique      Operator = "unique"
	OpSum         Operator = "sum"
	OpAvg         Operator = "avg"
	OpMin         Operator = "min"
	OpMax         Operator = "max"
	OpChecked     Operator = "checked"
	OpUnchecked   Operator = "unchecked"
)

// NoValue is shown by numeric operators over a column without numbers
const NoValue = "—"

var (
	generalOps  = []Operator{OpNone, OpCount, OpCountValues, OpCountEmpty, OpUnique}
	numericOps  = []Operator{OpSum, OpAvg, OpMin, OpMax}
	checkboxOps = []Operator{OpChecked, OpUnchecked}
)

// OperatorsFor lists the operators applicable to a column kind, in menu order
func OperatorsFor(k schema.Kind) []Operator {
	out := append([]Operator(nil), generalOps...)
	switch {
	case k.IsNumeric():
		out = append(out, numericOps...)
	case k.IsBoolean():
		out = append(out, checkboxOps...)
	}
	return out
}

// Applicable reports whether op can run on a column of kind k
func (op Operator) Applicable(k schema.Kind) bool {
	for _, o := range OperatorsFor(k) {
		if o == op {
			return true
		}
	}
	return false
}

// Label is the short name shown in the footer
func (op Operator) Label() string {
	switch op {
	case OpCountValues:
		return "values"
	case OpCountEmpty:
		return "empty"
	case OpNone:
		return ""
	}
	return string(op)
}

// Aggregate computes the footer value of col over rows. An operator that does
// not apply to the column kind yields "".
func Aggregate(rows []models.Record, col schema.Column, op Operator) string {
	if op == OpNone || op == "" || !op.Applicable(col.Kind) {
		return ""
	}

	switch op {
	case OpCount:
		return strconv.Itoa(len(rows))
	case OpCountValues, OpCountEmpty:
		n := 0
		for _, r := range rows {
			if (col.Project(r) != "") == (op == OpCountValues) {
				n++
			}
		}
		return strconv.Itoa(n)
	case OpUnique:
		seen := make(map[string]struct{})
		for _, r := range rows {
			if p := col.Project(r); p != "" {
				seen[p] = struct{}{}
			}
		}
		return strconv.Itoa(len(seen))
	case OpChecked, OpUnchecked:
		n := 0
		for _, r := range rows {
			if schema.IsChecked(col.Raw(r)) == (op == OpChecked) {
				n++
			}
		}
		return strconv.Itoa(n)
	}

	var values []float64
	for _, r := range rows {
		if v, ok := schema.NumericValue(col.Raw(r)); ok {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return NoValue
	}

	switch op {
	case OpSum:
		return schema.FormatNumber(sum(values))
	case OpAvg:
		return fmt.Sprintf("%.2f", sum(values)/float64(len(values)))
	case OpMin:
		m := math.Inf(1)
		for _, v := range values {
			m = math.Min(m, v)
		}
		return schema.FormatNumber(m)
	case OpMax:
		m := math.Inf(-1)
		for _, v := range values {
			m = math.Max(m, v)
		}
		return schema.FormatNumber(m)
	}
	return ""
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}

// ShowAggregates reports whether the footer row is needed: at least one
// visible column has an operator other than none.
func ShowAggregates(visible []string, ops map[string]Operator) bool {
	for _, key := range visible {
		if op, ok := ops[key]; ok && op != OpNone && op != "" {
			return true
		}
	}
	return false
}
