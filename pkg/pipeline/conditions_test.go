package pipeline

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	pkgerrors "github.com/tombee/baton/pkg/errors"
)

func TestComparisonConstructors(t *testing.T) {
	tests := []struct {
		name     string
		build    func(left Expressible, right any) (*ConditionComparison, error)
		wantType string
	}{
		{"equals", NewConditionEquals, "Equals"},
		{"greater than", NewConditionGreaterThan, "GreaterThan"},
		{"greater than or equal", NewConditionGreaterThanOrEqualTo, "GreaterThanOrEqualTo"},
		{"less than", NewConditionLessThan, "LessThan"},
		{"less than or equal", NewConditionLessThanOrEqualTo, "LessThanOrEqualTo"},
	}

	left := NewParameterString("environment")

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cond, err := tt.build(left, "production")
			if err != nil {
				t.Fatalf("constructor returned error: %v", err)
			}

			if cond.Type() != ConditionType(tt.wantType) {
				t.Errorf("Type() = %q, want %q", cond.Type(), tt.wantType)
			}

			got := cond.ToRequest()
			want := map[string]any{
				"Type":       tt.wantType,
				"LeftValue":  map[string]any{"Get": "Parameters.environment"},
				"RightValue": "production",
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("ToRequest() = %#v, want %#v", got, want)
			}
		})
	}
}

func TestComparisonDeferredRightOperand(t *testing.T) {
	left := NewParameterString("deadline")

	cond, err := NewConditionLessThan(left, ExecutionCurrentDateTime)
	if err != nil {
		t.Fatalf("constructor returned error: %v", err)
	}

	got := cond.ToRequest()
	want := map[string]any{
		"Type":       "LessThan",
		"LeftValue":  map[string]any{"Get": "Parameters.deadline"},
		"RightValue": map[string]any{"Get": "Execution.CurrentDateTime"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ToRequest() = %#v, want %#v", got, want)
	}
}

func TestComparisonMissingOperands(t *testing.T) {
	param := NewParameterInteger("count")

	t.Run("nil left", func(t *testing.T) {
		_, err := NewConditionEquals(nil, 3)
		if err == nil {
			t.Fatal("expected error for nil left operand")
		}

		var valErr *pkgerrors.ValidationError
		if !errors.As(err, &valErr) {
			t.Fatalf("expected ValidationError, got %T", err)
		}
		if valErr.Field != "left" {
			t.Errorf("Field = %q, want %q", valErr.Field, "left")
		}
	})

	t.Run("nil right", func(t *testing.T) {
		_, err := NewConditionGreaterThan(param, nil)
		if err == nil {
			t.Fatal("expected error for nil right operand")
		}

		var valErr *pkgerrors.ValidationError
		if !errors.As(err, &valErr) {
			t.Fatalf("expected ValidationError, got %T", err)
		}
		if valErr.Field != "right" {
			t.Errorf("Field = %q, want %q", valErr.Field, "right")
		}
	})
}

func TestConditionIn(t *testing.T) {
	region := NewParameterString("region")
	fallback := NewParameterString("fallback_region")

	cond, err := NewConditionIn(region, []any{"us-east-1", fallback, 3})
	if err != nil {
		t.Fatalf("constructor returned error: %v", err)
	}

	got := cond.ToRequest()
	want := map[string]any{
		"Type":       "In",
		"QueryValue": map[string]any{"Get": "Parameters.region"},
		"Values": []any{
			"us-east-1",
			map[string]any{"Get": "Parameters.fallback_region"},
			3,
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ToRequest() = %#v, want %#v", got, want)
	}
}

func TestConditionInCandidateOrder(t *testing.T) {
	value := NewParameterString("stage")
	candidates := []any{"dev", "staging", "prod", "dr"}

	cond, err := NewConditionIn(value, candidates)
	if err != nil {
		t.Fatalf("constructor returned error: %v", err)
	}

	rendered := cond.ToRequest()["Values"].([]any)
	if len(rendered) != len(candidates) {
		t.Fatalf("rendered %d candidates, want %d", len(rendered), len(candidates))
	}
	for i, c := range candidates {
		if rendered[i] != c {
			t.Errorf("Values[%d] = %v, want %v", i, rendered[i], c)
		}
	}
}

func TestConditionInNilCandidates(t *testing.T) {
	value := NewParameterString("region")

	cond, err := NewConditionIn(value, nil)
	if err != nil {
		t.Fatalf("constructor returned error: %v", err)
	}

	if cond.Values == nil {
		t.Error("nil candidate slice should collapse to empty at construction")
	}

	rendered := cond.ToRequest()["Values"]
	vals, ok := rendered.([]any)
	if !ok {
		t.Fatalf("Values rendered as %T, want []any", rendered)
	}
	if len(vals) != 0 {
		t.Errorf("Values = %v, want empty", vals)
	}

	data, jsonErr := json.Marshal(cond.ToRequest())
	if jsonErr != nil {
		t.Fatalf("marshal: %v", jsonErr)
	}
	if !strings.Contains(string(data), `"Values":[]`) {
		t.Errorf("JSON should contain empty Values array: %s", data)
	}
}

func TestConditionInMissingValue(t *testing.T) {
	_, err := NewConditionIn(nil, []any{"a"})
	if err == nil {
		t.Fatal("expected error for nil query value")
	}

	var valErr *pkgerrors.ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if valErr.Field != "value" {
		t.Errorf("Field = %q, want %q", valErr.Field, "value")
	}
}

func TestConditionNot(t *testing.T) {
	inner, err := NewConditionEquals(NewParameterString("mode"), "dry-run")
	if err != nil {
		t.Fatalf("building inner condition: %v", err)
	}

	cond, err := NewConditionNot(inner)
	if err != nil {
		t.Fatalf("constructor returned error: %v", err)
	}

	got := cond.ToRequest()
	want := map[string]any{
		"Type": "Not",
		"Expression": map[string]any{
			"Type":       "Equals",
			"LeftValue":  map[string]any{"Get": "Parameters.mode"},
			"RightValue": "dry-run",
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ToRequest() = %#v, want %#v", got, want)
	}
}

func TestConditionNotNested(t *testing.T) {
	inner, err := NewConditionEquals(NewParameterBoolean("enabled"), true)
	if err != nil {
		t.Fatalf("building inner condition: %v", err)
	}
	once, err := NewConditionNot(inner)
	if err != nil {
		t.Fatalf("building first negation: %v", err)
	}
	twice, err := NewConditionNot(once)
	if err != nil {
		t.Fatalf("building second negation: %v", err)
	}

	got := twice.ToRequest()

	if got["Type"] != "Not" {
		t.Fatalf("outer Type = %v, want Not", got["Type"])
	}
	mid, ok := got["Expression"].(map[string]any)
	if !ok {
		t.Fatalf("outer Expression is %T, want map", got["Expression"])
	}
	if mid["Type"] != "Not" {
		t.Fatalf("middle Type = %v, want Not", mid["Type"])
	}
	leaf, ok := mid["Expression"].(map[string]any)
	if !ok {
		t.Fatalf("middle Expression is %T, want map", mid["Expression"])
	}
	if leaf["Type"] != "Equals" {
		t.Errorf("leaf Type = %v, want Equals", leaf["Type"])
	}
}

func TestConditionNotMissingInner(t *testing.T) {
	_, err := NewConditionNot(nil)
	if err == nil {
		t.Fatal("expected error for nil inner condition")
	}

	var valErr *pkgerrors.ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
}

func TestConditionOrEmpty(t *testing.T) {
	cond := NewConditionOr()

	got := cond.ToRequest()
	want := map[string]any{
		"Type":       "Or",
		"Conditions": []any{},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ToRequest() = %#v, want %#v", got, want)
	}

	data, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"Conditions":[]`) {
		t.Errorf("empty disjunction should serialize an empty array, got %s", data)
	}
}

func TestConditionOrNilSliceCollapses(t *testing.T) {
	var terms []Condition
	cond := NewConditionOr(terms...)

	if cond.Conditions == nil {
		t.Error("nil term slice should collapse to empty at construction")
	}
}

func TestConditionOrTermOrder(t *testing.T) {
	stage := NewParameterString("stage")

	first, err := NewConditionEquals(stage, "dev")
	if err != nil {
		t.Fatalf("building first term: %v", err)
	}
	second, err := NewConditionEquals(stage, "staging")
	if err != nil {
		t.Fatalf("building second term: %v", err)
	}
	third, err := NewConditionIn(stage, []any{"prod", "dr"})
	if err != nil {
		t.Fatalf("building third term: %v", err)
	}

	cond := NewConditionOr(first, second, third)

	terms := cond.ToRequest()["Conditions"].([]any)
	if len(terms) != 3 {
		t.Fatalf("rendered %d terms, want 3", len(terms))
	}

	wantTypes := []string{"Equals", "Equals", "In"}
	for i, term := range terms {
		m := term.(map[string]any)
		if m["Type"] != wantTypes[i] {
			t.Errorf("Conditions[%d].Type = %v, want %v", i, m["Type"], wantTypes[i])
		}
	}
	if terms[1].(map[string]any)["RightValue"] != "staging" {
		t.Error("second term should be the staging comparison")
	}
}

func TestToRequestIdempotent(t *testing.T) {
	auc := NewProperties("train").Field("Metrics").Field("AUC")
	threshold := NewParameterFloat("min_auc").WithDefault(0.82)

	passed, err := NewConditionGreaterThanOrEqualTo(auc, threshold)
	if err != nil {
		t.Fatalf("building comparison: %v", err)
	}
	region, err := NewConditionIn(NewParameterString("region"), []any{"us-east-1", "eu-west-1"})
	if err != nil {
		t.Fatalf("building membership: %v", err)
	}
	skipped, err := NewConditionNot(region)
	if err != nil {
		t.Fatalf("building negation: %v", err)
	}
	tree := NewConditionOr(passed, skipped)

	first := tree.ToRequest()
	second := tree.ToRequest()
	if !reflect.DeepEqual(first, second) {
		t.Fatal("consecutive renders should be deeply equal")
	}

	// Mutating a rendered request must not leak into later renders.
	delete(first, "Type")
	first["Conditions"].([]any)[0].(map[string]any)["Type"] = "tampered"

	third := tree.ToRequest()
	if !reflect.DeepEqual(second, third) {
		t.Error("render after mutation of a previous result should be unchanged")
	}
}

func TestResolveValue(t *testing.T) {
	t.Run("literals pass through untouched", func(t *testing.T) {
		literals := []any{"text", 42, int64(7), 3.14, true, false}
		for _, v := range literals {
			if got := resolveValue(v); got != v {
				t.Errorf("resolveValue(%v) = %v, want identity", v, got)
			}
		}
	})

	t.Run("deferred references render as expressions", func(t *testing.T) {
		got := resolveValue(ExecutionRunID)
		want := map[string]any{"Get": "Execution.RunId"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("resolveValue(ExecutionRunID) = %#v, want %#v", got, want)
		}
	})

	t.Run("resolveValues preserves order and handles nil", func(t *testing.T) {
		got := resolveValues([]any{"a", NewParameterString("b"), 3})
		want := []any{"a", map[string]any{"Get": "Parameters.b"}, 3}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("resolveValues = %#v, want %#v", got, want)
		}

		empty := resolveValues(nil)
		if empty == nil || len(empty) != 0 {
			t.Errorf("resolveValues(nil) = %#v, want empty non-nil slice", empty)
		}
	})
}
