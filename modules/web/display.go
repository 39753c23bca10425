package web

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// display formats a field value for a list row.
func display(v cty.Value) string {
	if v.IsNull() || !v.IsKnown() {
		return "-"
	}
	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString()
	case ty == cty.Number:
		return v.AsBigFloat().Text('f', -1)
	case ty == cty.Bool:
		return fmt.Sprintf("%t", v.True())
	case ty.IsListType() || ty.IsSetType() || ty.IsTupleType():
		var parts []string
		for it := v.ElementIterator(); it.Next(); {
			_, e := it.Element()
			parts = append(parts, display(e))
		}
		return "[" + strings.Join(parts, ",") + "]"
	default:
		return ty.FriendlyName()
	}
}
