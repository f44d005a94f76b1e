package version

import "testing"

func TestIsValidBuild(t *testing.T) {
	tests := []struct {
		build string
		valid bool
	}{
		{"", false},
		{"abc123", true},
		{"rc-1.2", true},
		{"bad build", false},
		{"tag+meta", false},
	}
	for _, test := range tests {
		if isValidBuild(test.build) != test.valid {
			t.Fatalf("TestIsValidBuild: isValidBuild(%q) should be %t", test.build, test.valid)
		}
	}

	if Version() != "0.1.0" {
		t.Fatalf("TestIsValidBuild: unexpected version %s", Version())
	}
}
