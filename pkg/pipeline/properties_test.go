package pipeline

import (
	"reflect"
	"testing"
)

func TestPropertiesPath(t *testing.T) {
	tests := []struct {
		name  string
		build func() *Properties
		want  string
	}{
		{
			name:  "root",
			build: func() *Properties { return NewProperties("train") },
			want:  "Steps.train",
		},
		{
			name:  "nested fields",
			build: func() *Properties { return NewProperties("train").Field("Metrics").Field("AUC") },
			want:  "Steps.train.Metrics.AUC",
		},
		{
			name:  "indexed list element",
			build: func() *Properties { return NewProperties("train").Field("Artifacts").Index(0) },
			want:  "Steps.train.Artifacts[0]",
		},
		{
			name:  "field beneath index",
			build: func() *Properties { return NewProperties("shard").Field("Outputs").Index(2).Field("Uri") },
			want:  "Steps.shard.Outputs[2].Uri",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.build()
			if p.Path() != tt.want {
				t.Errorf("Path() = %q, want %q", p.Path(), tt.want)
			}

			got := p.Expr()
			want := map[string]any{"Get": tt.want}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("Expr() = %#v, want %#v", got, want)
			}
		})
	}
}

func TestPropertiesImmutable(t *testing.T) {
	root := NewProperties("train")
	metrics := root.Field("Metrics")
	auc := metrics.Field("AUC")
	loss := metrics.Field("Loss")

	if root.Path() != "Steps.train" {
		t.Errorf("root mutated: %q", root.Path())
	}
	if metrics.Path() != "Steps.train.Metrics" {
		t.Errorf("intermediate mutated: %q", metrics.Path())
	}
	if auc.Path() != "Steps.train.Metrics.AUC" || loss.Path() != "Steps.train.Metrics.Loss" {
		t.Errorf("siblings interfere: %q, %q", auc.Path(), loss.Path())
	}
}

func TestPropertiesAsOperand(t *testing.T) {
	auc := NewProperties("train").Field("Metrics").Field("AUC")

	cond, err := NewConditionGreaterThan(auc, 0.9)
	if err != nil {
		t.Fatalf("constructor returned error: %v", err)
	}

	got := cond.ToRequest()
	want := map[string]any{
		"Type":       "GreaterThan",
		"LeftValue":  map[string]any{"Get": "Steps.train.Metrics.AUC"},
		"RightValue": 0.9,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ToRequest() = %#v, want %#v", got, want)
	}
}
