package pathexpr

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want Branches
	}{
		{"single code", "5", Branches{{"5"}}},
		{"sequence", "10+11", Branches{{"10", "11"}}},
		{"two branches", "10+11|12", Branches{{"10", "11"}, {"12"}}},
		{"whitespace trimmed", "  3 +  5.1 | 4 ", Branches{{"3", "5.1"}, {"4"}}},
		{"empty branch dropped", "3||4", Branches{{"3"}, {"4"}}},
		{"branch of separators dropped", "3|+ +|4", Branches{{"3"}, {"4"}}},
		{"routing separators are literal", "5%3", Branches{{"5%3"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.expr)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestParseDegenerate(t *testing.T) {
	for _, expr := range []string{"", "   ", "|", "+", "  |  ", "+|+", " + | + "} {
		if got := Parse(expr); got != nil {
			t.Errorf("Parse(%q) = %v, want nil", expr, got)
		}
	}
}

func TestParseJoinRoundTrip(t *testing.T) {
	sets := []Branches{
		{{"1"}},
		{{"1", "2", "3"}},
		{{"3", "5.1"}, {"4"}, {"2", "5"}},
	}
	for _, b := range sets {
		if got := Parse(Join(b)); !reflect.DeepEqual(got, b) {
			t.Errorf("Parse(Join(%v)) = %v", b, got)
		}
	}
}

func TestParseRouting(t *testing.T) {
	tests := []struct {
		expr string
		want []string
	}{
		{"5%3", []string{"5", "3"}},
		{"1$2&3|4", []string{"1", "2", "3", "4"}},
		{" 5.1 % 3 ", []string{"5.1", "3"}},
		{"10+11", []string{"10+11"}},
		{"%%", nil},
		{"", nil},
	}
	for _, tt := range tests {
		got := ParseRouting(tt.expr)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseRouting(%q) = %v, want %v", tt.expr, got, tt.want)
		}
	}
}

func TestBaseCode(t *testing.T) {
	cases := map[string]string{"5.1": "5", "5": "5", "12.3.4": "12", " 7.2 ": "7"}
	for in, want := range cases {
		if got := BaseCode(in); got != want {
			t.Errorf("BaseCode(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBranchCode(t *testing.T) {
	if got := BranchCode(0, 1); got != "" {
		t.Errorf("single branch code = %q, want empty", got)
	}
	if got := BranchCode(0, 2); got != "A" {
		t.Errorf("BranchCode(0,2) = %q, want A", got)
	}
	if got := BranchCode(2, 3); got != "C" {
		t.Errorf("BranchCode(2,3) = %q, want C", got)
	}
	for i := 0; i < 5; i++ {
		idx, ok := BranchIndex(BranchCode(i, 5))
		if !ok || idx != i {
			t.Errorf("BranchIndex(BranchCode(%d)) = %d, %v", i, idx, ok)
		}
	}
	if _, ok := BranchIndex("AB"); ok {
		t.Error("BranchIndex(AB) should fail")
	}
}
