package esf

import "fmt"

// Validate checks that doc can be encoded: every node is well-typed, every
// value matches its element kind and every tag index refers to the tag table.
func (d *Document) Validate() error {
	return validateDocument(d)
}

func validateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrValidation)
	}
	if _, err := CodecFor(doc.Header.Magic); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := validateNodes(doc.Nodes, "root"); err != nil {
		return err
	}
	return validateTags(doc)
}

func validateNodes(nodes []Node, where string) error {
	for i, n := range nodes {
		path := fmt.Sprintf("%s[%d]", where, i)
		switch v := n.(type) {
		case *Scalar:
			if v == nil {
				return fmt.Errorf("%w: %s: nil scalar", ErrValidation, path)
			}
			if err := validateValue(v.Kind, v.Value, path); err != nil {
				return err
			}
		case *Array:
			if v == nil {
				return fmt.Errorf("%w: %s: nil array", ErrValidation, path)
			}
			for j, e := range v.Values {
				if err := validateValue(v.Kind, e, fmt.Sprintf("%s[%d]", path, j)); err != nil {
					return err
				}
			}
		case *Record:
			if v == nil {
				return fmt.Errorf("%w: %s: nil record", ErrValidation, path)
			}
			if err := validateBody(v.Children, v.Values, path); err != nil {
				return err
			}
		case *RecordArray:
			if v == nil {
				return fmt.Errorf("%w: %s: nil record array", ErrValidation, path)
			}
			for j, g := range v.Elements {
				if err := validateBody(g.Children, g.Values, fmt.Sprintf("%s[%d]", path, j)); err != nil {
					return err
				}
			}
		default:
			return fmt.Errorf("%w: %s: unsupported node %T", ErrValidation, path, n)
		}
	}
	return nil
}

// validateBody checks that children are structural and values are not.
func validateBody(children, values []Node, path string) error {
	for i, c := range children {
		if !Structural(c) {
			return fmt.Errorf("%w: %s.children[%d] is not a record", ErrValidation, path, i)
		}
	}
	for i, v := range values {
		if v == nil || Structural(v) {
			return fmt.Errorf("%w: %s.values[%d] is not a value node", ErrValidation, path, i)
		}
	}
	if err := validateNodes(children, path+".children"); err != nil {
		return err
	}
	return validateNodes(values, path+".values")
}

func validateValue(kind ElementKind, v any, path string) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %s: invalid element kind %d", ErrValidation, path, kind)
	}
	var ok bool
	switch kind {
	case KindBool:
		_, ok = v.(bool)
	case KindInt8:
		_, ok = v.(int8)
	case KindInt16:
		_, ok = v.(int16)
	case KindInt32:
		_, ok = v.(int32)
	case KindInt64:
		_, ok = v.(int64)
	case KindUInt8:
		_, ok = v.(uint8)
	case KindUInt16:
		_, ok = v.(uint16)
	case KindUInt32:
		_, ok = v.(uint32)
	case KindUInt64:
		_, ok = v.(uint64)
	case KindFloat32:
		_, ok = v.(float32)
	case KindFloat64:
		_, ok = v.(float64)
	case KindCoord2D:
		_, ok = v.(Coord2D)
	case KindCoord3D:
		_, ok = v.(Coord3D)
	case KindUtf16String, KindAsciiString:
		_, ok = v.(string)
	case KindAngle:
		_, ok = v.(Angle)
	}
	if !ok {
		return fmt.Errorf("%w: %s: %T is not a %s value", ErrValidation, path, v, kind)
	}
	return nil
}

// validateTags checks every record tag index against the document's own tag
// table.
func validateTags(doc *Document) error {
	var err error
	Walk(doc.Nodes, func(n Node) bool {
		if err != nil {
			return false
		}
		var idx uint16
		switch v := n.(type) {
		case *Record:
			idx = v.TagIndex
		case *RecordArray:
			idx = v.TagIndex
		default:
			return true
		}
		if _, ok := doc.TagName(idx); !ok {
			err = fmt.Errorf("%w: tag index %d outside table of %d", ErrValidation, idx, len(doc.Footer.Tags))
			return false
		}
		return true
	})
	return err
}
