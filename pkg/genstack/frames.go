package genstack

// Frame is one activation record of the generation process: the function name
// and its local variables. Class-valued locals hold *TypeRef and generation
// engine instances hold *GenerationContext.
type Frame struct {
	Function string
	Locals   map[string]any
}

// FromFrames recognizes schema generation checkpoints in a call stack ordered
// outermost first. Frames matching no known shape only contribute the generation
// engine they expose, if any.
func FromFrames(frames []Frame) []Event {
	var events []Event
	for _, f := range frames {
		engine, _ := f.Locals["self"].(*GenerationContext)
		recognized := false
		emit := func(ev Event) {
			ev.Engine = engine
			events = append(events, ev)
			recognized = true
		}

		switch f.Function {
		case "_model_schema":
			if t := typeLocal(f, "cls"); t != nil {
				emit(Event{Kind: KindEnterModel, Type: t})
			}

		case "_typed_dict_schema":
			if t := typeLocal(f, "typed_dict_cls"); t != nil {
				emit(Event{Kind: KindEnterTypedDict, Type: t})
			}

		case "_namedtuple_schema":
			if t := typeLocal(f, "namedtuple_cls"); t != nil {
				emit(Event{Kind: KindEnterNamedTuple, Type: t})
			}

		case "_common_field_schema":
			if name, ok := f.Locals["name"].(string); ok {
				emit(Event{Kind: KindEnterField, Field: name})
			}

		case "__new__":
			if mcs := typeLocal(f, "mcs"); mcs != nil && mcs.Kind == TypeMetaclass {
				name, _ := f.Locals["cls_name"].(string)
				emit(Event{Kind: KindCreateModel, Name: name, Type: typeLocal(f, "cls")})
			}

		case "__class_getitem__":
			if cls := typeLocal(f, "cls"); cls != nil && cls.Kind == TypeModel {
				name, _ := f.Locals["model_name"].(string)
				emit(Event{Kind: KindParametrize, Name: name, Type: cls, Args: stringsLocal(f, "typevar_values")})
			}
		}

		if !recognized && engine != nil {
			events = append(events, Event{Kind: KindEngine, Engine: engine})
		}
	}
	return events
}

func typeLocal(f Frame, name string) *TypeRef {
	t, _ := f.Locals[name].(*TypeRef)
	return t
}

func stringsLocal(f Frame, name string) []string {
	switch v := f.Locals[name].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			switch x := item.(type) {
			case string:
				out = append(out, x)
			case *TypeRef:
				out = append(out, x.Name)
			}
		}
		return out
	default:
		return nil
	}
}
