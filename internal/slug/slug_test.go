package slug

import "testing"

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Eating Out":  "eating_out",
		"eating_out":  "eating_out",
		"  Food &  Drink ": "food_drink",
		"Rent":        "rent",
		"CAFÉ":        "caf",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Fatalf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsSlug(t *testing.T) {
	if !IsSlug("groceries") {
		t.Fatal("groceries should be a slug")
	}
	if IsSlug("Groceries") || IsSlug("") {
		t.Fatal("uppercase/empty should not be slugs")
	}
}
