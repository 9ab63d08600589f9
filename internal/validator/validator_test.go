package validator

import (
	"context"
	"testing"

	"github.com/abhisek/pyquest/internal/catalog"
)

func project(t *testing.T, id int) *catalog.Project {
	t.Helper()
	p := catalog.Default().Project(id)
	if p == nil {
		t.Fatalf("project %d missing from catalog", id)
	}
	return p
}

func TestValidate_CatalogProjects(t *testing.T) {
	tests := []struct {
		name    string
		project int
		code    string
		want    bool
	}{
		{
			name:    "pet shop complete",
			project: 1,
			code:    "pet_name = \"Sparky\"\npet_age = 3\ncan_fly = True\nwelcome_message = \"Hi \" + pet_name\n",
			want:    true,
		},
		{
			name:    "pet shop without boolean",
			project: 1,
			code:    "pet_name = \"Sparky\"\npet_age = 3\ncan_fly = 1\nwelcome_message = \"Hi\"\n",
			want:    false,
		},
		{
			name:    "pet shop without number",
			project: 1,
			code:    "pet_name = 'Sparky'\npet_age = 'three'\ncan_fly = False\nwelcome_message = 'Hi'\n",
			want:    false,
		},
		{
			name:    "calculator",
			project: 2,
			code:    "def add_numbers(a, b):\n    return a + b\n",
			want:    true,
		},
		{
			name:    "calculator prints instead of returning",
			project: 2,
			code:    "def add_numbers(a, b):\n    print(a + b)\n",
			want:    false,
		},
		{
			name:    "format name",
			project: 3,
			code:    "def format_name(full):\n    parts = full.split()\n    return parts[-1] + ', ' + parts[0]\n",
			want:    true,
		},
		{
			name:    "analyzer",
			project: 4,
			code:    "def analyze_numbers(nums):\n    return {'sum': sum(nums)}\n",
			want:    true,
		},
		{
			name:    "analyzer wrong name",
			project: 4,
			code:    "def analyse(nums):\n    return sum(nums)\n",
			want:    false,
		},
		{
			name:    "password",
			project: 5,
			code:    "def validate_password(p):\n    return {'valid': len(p) >= 8, 'errors': []}\n",
			want:    true,
		},
		{
			name:    "text analyzer",
			project: 6,
			code:    "def analyze_text(text):\n    words = text.split()\n    return {'word_count': len(words)}\n",
			want:    true,
		},
		{
			name:    "blank submission",
			project: 2,
			code:    "   \n",
			want:    false,
		},
	}

	v := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := project(t, tt.project)
			if got := v.Validate(context.Background(), p, tt.code); got != tt.want {
				t.Fatalf("Validate() = %v, want %v\n%+v", got, tt.want, v.Check(p, tt.code).Results)
			}
		})
	}
}

func TestValidate_Deterministic(t *testing.T) {
	v := New()
	p := project(t, 3)
	code := "def format_name(n):\n    return n\n"
	first := v.Check(p, code)
	for range 5 {
		again := v.Check(p, code)
		if again.Passed != first.Passed || len(again.Results) != len(first.Results) {
			t.Fatalf("results changed between runs: %+v vs %+v", first, again)
		}
	}
}

func TestCheck_ReportsEveryFailure(t *testing.T) {
	p := &catalog.Project{
		ID: 9,
		Checks: []catalog.Check{
			{Description: "has main", All: []string{"def main", "return"}},
			{Description: "loops", Any: []string{"for ", "while "}},
			{Description: "no eval", None: []string{"eval("}},
			{Description: "has a digit", Pattern: `\d`},
		},
	}

	r := New().Check(p, "def main():\n    eval('x')\n")
	if r.Passed {
		t.Fatal("expected failure")
	}
	want := []struct {
		passed  bool
		missing string
	}{
		{false, `missing "return"`},
		{false, `needs one of "for ", "while "`},
		{false, `must not use "eval("`},
		{false, `nothing matches \d`},
	}
	if len(r.Results) != len(want) {
		t.Fatalf("got %d results, want %d", len(r.Results), len(want))
	}
	for i, w := range want {
		if r.Results[i].Passed != w.passed || r.Results[i].Missing != w.missing {
			t.Errorf("result %d = %+v, want %+v", i, r.Results[i], w)
		}
	}
}

func TestCheck_NoChecksNeverPasses(t *testing.T) {
	if New().Check(&catalog.Project{ID: 1}, "print('hi')").Passed {
		t.Fatal("a project without checks cannot be passed")
	}
}
