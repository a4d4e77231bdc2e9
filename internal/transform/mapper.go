package transform

import (
	"github.com/agentic-research/yomitran/api"
)

// MapFields materialises the target field values of category.
//
// Each reference resolves against virtual fields first, then source fields,
// unless its prefix pins one namespace. A name found in neither fails with
// ErrUnknownFieldReference; a to_tag virtual field fails with
// ErrInvalidFieldUsage. Missing values never silently become empty.
func MapFields(category *Category, src Values, virt Virtuals) (map[string]string, error) {
	out := make(map[string]string, len(category.Fields))
	for _, ref := range category.Fields {
		val, err := resolveRef(ref, src, virt)
		if err != nil {
			return nil, &FieldError{Err: err, Category: category.Name, Target: ref.Target, Ref: ref.Ref}
		}
		out[ref.Target] = val
	}
	return out, nil
}

func resolveRef(ref FieldRef, src Values, virt Virtuals) (string, error) {
	if ref.Namespace != api.NamespaceSource {
		if v, ok := virt[ref.Name]; ok {
			if v.Tag {
				return "", ErrInvalidFieldUsage
			}
			return v.Value, nil
		}
	}
	if ref.Namespace != api.NamespaceVirtual {
		if v, ok := src[ref.Name]; ok {
			return v, nil
		}
	}
	return "", ErrUnknownFieldReference
}
