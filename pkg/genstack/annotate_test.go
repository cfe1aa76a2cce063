package genstack

import (
	"errors"
	"testing"

	"github.com/leapstack-labs/schemadbg/internal/testutil"
	"github.com/leapstack-labs/schemadbg/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func model(name string) *TypeRef {
	return &TypeRef{Name: name, Kind: TypeModel}
}

func labels(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Label
	}
	return out
}

func TestAnnotate_Empty(t *testing.T) {
	res, err := Annotate(nil, Options{})
	require.NoError(t, err)

	assert.True(t, res.Tree.Empty())
	assert.Nil(t, res.Context)
	assert.Nil(t, res.RecursionGuard)
}

func TestAnnotate_SiblingsAndNesting(t *testing.T) {
	events := []Event{
		{Kind: KindEnterModel, Type: model("A")},
		{Kind: KindEnterField, Field: "x"},
		{Kind: KindCreateModel, Name: "B", Type: model("B")},
		{Kind: KindEnterField, Field: "y"},
	}

	res, err := Annotate(events, Options{})
	require.NoError(t, err)

	top := res.Tree.Root.Children
	assert.Equal(t, []string{
		"Building schema for Model 'A'",
		"Field 'x'",
		"Creating Model 'B'",
	}, labels(top))

	assert.Empty(t, top[0].Children)
	assert.Empty(t, top[1].Children)
	require.Len(t, top[2].Children, 1)
	assert.Equal(t, "Field 'y'", top[2].Children[0].Label)

	depths := map[string]int{}
	res.Tree.Walk(func(n *Node, depth int) {
		depths[n.Label] = depth
	})
	assert.Equal(t, 1, depths["Building schema for Model 'A'"])
	assert.Equal(t, 1, depths["Creating Model 'B'"])
	assert.Equal(t, 2, depths["Field 'y'"])
}

func TestAnnotate_Labels(t *testing.T) {
	located := &TypeRef{Name: "User", Kind: TypeModel, File: "/src/app/models.py", Line: 12}

	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{
			name:  "model with location",
			event: Event{Kind: KindEnterModel, Type: located},
			want:  "Building schema for Model 'User' (/src/app/models.py:L12)",
		},
		{
			name:  "typed dict",
			event: Event{Kind: KindEnterTypedDict, Type: &TypeRef{Name: "Movie", Kind: TypeTypedDict}},
			want:  "Building schema for TypedDict 'Movie'",
		},
		{
			name:  "named tuple",
			event: Event{Kind: KindEnterNamedTuple, Type: &TypeRef{Name: "Point", Kind: TypeNamedTuple}},
			want:  "Building schema for NamedTuple 'Point'",
		},
		{
			name:  "model name only",
			event: Event{Kind: KindEnterModel, Name: "Anonymous"},
			want:  "Building schema for Model 'Anonymous'",
		},
		{
			name:  "creating bound model",
			event: Event{Kind: KindCreateModel, Name: "User", Type: located},
			want:  "Creating Model 'User' (/src/app/models.py:L12)",
		},
		{
			name:  "creating unbound model",
			event: Event{Kind: KindCreateModel, Name: "Pending"},
			want:  "Creating Model 'Pending'",
		},
		{
			name:  "parametrizing named model",
			event: Event{Kind: KindParametrize, Name: "Box[int]", Type: model("Box")},
			want:  "Parametrizing model 'Box[int]'",
		},
		{
			name:  "parametrizing with types",
			event: Event{Kind: KindParametrize, Type: model("Pair"), Args: []string{"int", "str"}},
			want:  "Parametrizing model 'Pair' with types: (int, str)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Annotate([]Event{tt.event}, Options{})
			require.NoError(t, err)
			require.Len(t, res.Tree.Root.Children, 1)
			assert.Equal(t, tt.want, res.Tree.Root.Children[0].String())
		})
	}
}

func TestAnnotate_CursorAdvance(t *testing.T) {
	events := []Event{
		{Kind: KindParametrize, Type: model("Box"), Args: []string{"int"}},
		{Kind: KindCreateModel, Name: "Box[int]"},
		{Kind: KindEnterModel, Type: model("Box[int]")},
		{Kind: KindEnterField, Field: "content"},
		{Kind: KindEnterModel, Type: model("Inner")},
		{Kind: KindEnterField, Field: "value"},
	}

	res, err := Annotate(events, Options{})
	require.NoError(t, err)

	require.Len(t, res.Tree.Root.Children, 1)
	param := res.Tree.Root.Children[0]
	require.Len(t, param.Children, 1)
	create := param.Children[0]
	assert.Equal(t, "Creating Model 'Box[int]'", create.Label)
	assert.Equal(t, []string{
		"Building schema for Model 'Box[int]'",
		"Field 'content'",
		"Building schema for Model 'Inner'",
		"Field 'value'",
	}, labels(create.Children))
}

func TestAnnotate_FieldAnnotations(t *testing.T) {
	lookup := LookupFunc(func(tr *TypeRef, field string) (string, error) {
		if field == "broken" {
			return "", errors.New("source unavailable")
		}
		return tr.Name + "_" + field + "_type", nil
	})

	events := []Event{
		{Kind: KindEnterModel, Type: model("User")},
		{Kind: KindEnterField, Field: "broken"},
		{Kind: KindEnterField, Field: "name"},
		{Kind: KindEnterTypedDict, Type: &TypeRef{Name: "Movie"}},
		{Kind: KindEnterField, Field: "title"},
	}

	logger, logs := testutil.NewCaptureLogger()
	res, err := Annotate(events, Options{Annotations: lookup, Logger: logger})
	require.NoError(t, err)

	nodes := res.Tree.Root.Children
	require.Len(t, nodes, 5)

	assert.Equal(t, "Field 'broken'", nodes[1].String())
	assert.Empty(t, nodes[1].Annotation)
	assert.Equal(t, "broken", nodes[1].Field)
	assert.Contains(t, logs.String(), "field annotation unavailable")
	assert.Contains(t, logs.String(), "source unavailable")
	assert.Equal(t, "Field 'name': User_name_type", nodes[2].String())
	assert.Equal(t, "Field 'title': Movie_title_type", nodes[4].String())
}

func TestAnnotate_FieldOutsideType(t *testing.T) {
	_, err := Annotate([]Event{{Kind: KindEnterField, Field: "x"}}, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFieldOutsideType)
}

func TestAnnotate_CreateModelIsNotASubject(t *testing.T) {
	events := []Event{
		{Kind: KindCreateModel, Name: "Outer"},
		{Kind: KindEnterField, Field: "x"},
	}
	_, err := Annotate(events, Options{})
	assert.ErrorIs(t, err, ErrFieldOutsideType)
}

func TestAnnotate_ContextSummary(t *testing.T) {
	outer := &GenerationContext{ModelTypeStack: []string{"Outer"}}
	inner := &GenerationContext{
		ModelTypeStack: []string{"Outer", "Inner"},
		FieldNameStack: []string{"inner"},
		Definitions:    schema.Map{{Key: "Outer:1", Value: schema.Map{}}, {Key: "Inner:2", Value: schema.Map{}}},
		TypevarsMap:    schema.Map{{Key: "T", Value: "int"}},
	}

	events := []Event{
		{Kind: KindEnterModel, Type: model("Outer"), Engine: outer},
		{Kind: KindEngine, Engine: inner},
		{Kind: KindEnterField, Field: "inner"},
	}

	res, err := Annotate(events, Options{RecursionGuard: []string{"Box[int]"}})
	require.NoError(t, err)

	require.NotNil(t, res.Context)
	assert.Equal(t, []string{"Outer:1", "Inner:2"}, res.Context.Definitions)
	assert.Equal(t, []string{"Outer", "Inner"}, res.Context.ModelTypeStack)
	assert.Equal(t, []string{"inner"}, res.Context.FieldNameStack)
	assert.Equal(t, schema.Map{{Key: "T", Value: "int"}}, res.Context.TypevarsMap)
	assert.Equal(t, []string{"Box[int]"}, res.RecursionGuard)

	assert.Equal(t, []string{"Building schema for Model 'Outer'", "Field 'inner'"}, labels(res.Tree.Root.Children))
}

func TestAnnotate_EmptyEngineOmitted(t *testing.T) {
	events := []Event{{Kind: KindEngine, Engine: &GenerationContext{}}}

	res, err := Annotate(events, Options{RecursionGuard: []string{}})
	require.NoError(t, err)
	assert.Nil(t, res.Context)
	assert.Nil(t, res.RecursionGuard)
}

func TestAnnotate_PartialSummary(t *testing.T) {
	events := []Event{{Kind: KindEngine, Engine: &GenerationContext{FieldNameStack: []string{"a"}}}}

	res, err := Annotate(events, Options{})
	require.NoError(t, err)
	require.NotNil(t, res.Context)
	assert.Nil(t, res.Context.Definitions)
	assert.Nil(t, res.Context.ModelTypeStack)
	assert.Nil(t, res.Context.TypevarsMap)
	assert.Equal(t, []string{"a"}, res.Context.FieldNameStack)
}

func TestChain(t *testing.T) {
	failing := LookupFunc(func(*TypeRef, string) (string, error) {
		return "", errors.New("no source")
	})
	tr := &TypeRef{Name: "User", Fields: map[string]string{"id": "int"}}

	got, err := Chain{failing, DeclaredFields}.FieldAnnotation(tr, "id")
	require.NoError(t, err)
	assert.Equal(t, "int", got)

	_, err = Chain{DeclaredFields}.FieldAnnotation(tr, "missing")
	assert.ErrorIs(t, err, ErrNoAnnotation)

	_, err = Chain{}.FieldAnnotation(tr, "id")
	assert.ErrorIs(t, err, ErrNoAnnotation)
}

func TestParseEventKind(t *testing.T) {
	for kind, name := range kindNames {
		got, err := ParseEventKind(name)
		require.NoError(t, err)
		assert.Equal(t, kind, got)
		assert.Equal(t, name, kind.String())
	}

	_, err := ParseEventKind("enter_enum")
	assert.Error(t, err)
}
