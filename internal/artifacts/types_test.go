package artifacts

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestValidateKind(t *testing.T) {
	for _, k := range []Kind{KindFeature, KindIncrements, KindFutureFeature, KindPrompt} {
		if err := ValidateKind(k); err != nil {
			t.Errorf("ValidateKind(%s) returned error: %v", k, err)
		}
	}
	if err := ValidateKind("changelog"); err == nil {
		t.Error("ValidateKind(changelog) should fail")
	}
}

// --- Status ---

func TestParseStatus(t *testing.T) {
	tests := []struct {
		input string
		want  Status
	}{
		{"discovered", StatusDiscovered},
		{"  Discovered ", StatusDiscovered},
		{"stub — placeholder for future planning", StatusStub},
		{"stub (placeholder)", StatusStub},
		{"`increments-planned`", StatusIncrementsPlanned},
		{"prompts-generated.", StatusPromptsGenerated},
		{"in progress", StatusUnknown},
		{"", StatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseStatus(tt.input); got != tt.want {
				t.Errorf("ParseStatus(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestAdvance_NeverRegresses(t *testing.T) {
	tests := []struct {
		current, next, want Status
	}{
		{StatusDiscovered, StatusIncrementsPlanned, StatusIncrementsPlanned},
		{StatusPromptsGenerated, StatusDiscovered, StatusPromptsGenerated},
		{StatusStub, StatusStub, StatusStub},
		{StatusUnknown, StatusStub, StatusStub},
		{"", StatusUnknown, StatusUnknown},
	}

	for _, tt := range tests {
		if got := Advance(tt.current, tt.next); got != tt.want {
			t.Errorf("Advance(%q, %q) = %s, want %s", tt.current, tt.next, got, tt.want)
		}
	}
}

func TestStatusRank_Ordered(t *testing.T) {
	order := []Status{StatusUnknown, StatusStub, StatusDiscovered, StatusIncrementsPlanned, StatusPromptsGenerated}
	for i := 1; i < len(order); i++ {
		if order[i].Rank() <= order[i-1].Rank() {
			t.Errorf("%s should rank above %s", order[i], order[i-1])
		}
	}
}

// --- Dependency references ---

func TestDependencyList_UnmarshalMixed(t *testing.T) {
	var inc Increment
	if err := json.Unmarshal([]byte(`{"index":2,"depends_on":[1,"auth"," "]}`), &inc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual([]string(inc.DependsOn), []string{"1", "auth"}) {
		t.Errorf("DependsOn = %v, want [1 auth]", inc.DependsOn)
	}
}

func TestDependencyList_UnmarshalRejectsObjects(t *testing.T) {
	var d DependencyList
	if err := json.Unmarshal([]byte(`[{"x":1}]`), &d); err == nil {
		t.Error("expected error for object entries")
	}
	if err := json.Unmarshal([]byte(`"1"`), &d); err == nil {
		t.Error("expected error for a non-list value")
	}
}

func TestDependencyList_Split(t *testing.T) {
	d := DependencyList{"1", "#2", "increment 3", "auth", "stripe-api"}
	if got := d.Increments(); !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Errorf("Increments = %v, want [1 2 3]", got)
	}
	if got := d.Features(); !reflect.DeepEqual(got, []string{"auth", "stripe-api"}) {
		t.Errorf("Features = %v, want [auth stripe-api]", got)
	}
}

func TestParseIncrementRef(t *testing.T) {
	tests := []struct {
		ref    string
		want   int
		wantOK bool
	}{
		{"2", 2, true},
		{"#2", 2, true},
		{"Increment 4", 4, true},
		{"increment-5", 5, true},
		{"auth", 0, false},
		{"increments", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseIncrementRef(tt.ref)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseIncrementRef(%q) = (%d, %v), want (%d, %v)", tt.ref, got, ok, tt.want, tt.wantOK)
		}
	}
}
