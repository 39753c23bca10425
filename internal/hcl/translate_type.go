// This file contains the logic for parsing field type expressions (e.g.
// `char`, `many2one("res.partner")`) into model field types.

package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/addonkit/internal/ctxlog"
	"github.com/vk/addonkit/internal/model"
	"github.com/zclconf/go-cty/cty"
)

// parseFieldType converts a type expression into a field type. Relational
// types are written as calls: many2one(comodel), one2many(comodel, inverse),
// many2many(comodel). Scalar types are bare keywords.
func parseFieldType(ctx context.Context, expr hcl.Expression) (model.FieldType, string, string, error) {
	logger := ctxlog.FromContext(ctx)

	if expr == nil {
		return model.TypeInvalid, "", "", fmt.Errorf("missing type expression")
	}

	switch v := expr.(type) {
	case *hclsyntax.FunctionCallExpr:
		logger.Debug("Parsing type expression as a function call.", "call", v.Name)

		ft, err := model.ParseFieldType(v.Name)
		if err != nil {
			return model.TypeInvalid, "", "", err
		}
		if !ft.IsRelational() {
			return model.TypeInvalid, "", "", fmt.Errorf("type %q takes no arguments", v.Name)
		}

		maxArgs := 1
		if ft == model.TypeOne2Many {
			maxArgs = 2
		}
		if len(v.Args) < 1 || len(v.Args) > maxArgs {
			return model.TypeInvalid, "", "", fmt.Errorf("%s() takes between 1 and %d arguments, got %d", v.Name, maxArgs, len(v.Args))
		}

		relation, err := stringArg(v.Args[0])
		if err != nil {
			return model.TypeInvalid, "", "", fmt.Errorf("%s() comodel: %w", v.Name, err)
		}
		var inverse string
		if len(v.Args) == 2 {
			if inverse, err = stringArg(v.Args[1]); err != nil {
				return model.TypeInvalid, "", "", fmt.Errorf("%s() inverse: %w", v.Name, err)
			}
		}
		return ft, relation, inverse, nil

	case *hclsyntax.ScopeTraversalExpr:
		if len(v.Traversal) != 1 {
			return model.TypeInvalid, "", "", fmt.Errorf("invalid type keyword: traversal path is not a single identifier")
		}
		rootName := v.Traversal.RootName()
		logger.Debug("Parsing type expression as a keyword.", "keyword", rootName)

		ft, err := model.ParseFieldType(rootName)
		if err != nil {
			return model.TypeInvalid, "", "", err
		}
		if ft.IsRelational() {
			return model.TypeInvalid, "", "", fmt.Errorf("relational type %q needs a comodel, e.g. %s(\"res.partner\")", rootName, rootName)
		}
		return ft, "", "", nil

	default:
		return model.TypeInvalid, "", "", fmt.Errorf("unsupported expression for type definition: %T", v)
	}
}

func stringArg(expr hcl.Expression) (string, error) {
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return "", diags
	}
	if val.IsNull() || !val.Type().Equals(cty.String) {
		return "", fmt.Errorf("expected a string literal, got %s", val.Type().FriendlyName())
	}
	return val.AsString(), nil
}
