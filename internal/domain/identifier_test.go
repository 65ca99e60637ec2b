package domain

import "testing"

func TestNewIdentifierTrims(t *testing.T) {
	t.Parallel()

	id := NewIdentifier("  67-63-0\n", KindCAS)
	if id.Value != "67-63-0" {
		t.Fatalf("unexpected value: %q", id.Value)
	}
}

func TestKindValid(t *testing.T) {
	t.Parallel()

	if !KindCAS.Valid() || !KindProductName.Valid() {
		t.Fatal("supported kinds must be valid")
	}
	if Kind("inchi").Valid() || Kind("").Valid() {
		t.Fatal("unsupported kinds must be invalid")
	}
}

func TestFileName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		value string
		ext   string
		want  string
	}{
		{"67-63-0", "", "67-63-0-SDS.pdf"},
		{"67-63-0", "pdf", "67-63-0-SDS.pdf"},
		{"67-63-0", ".pdf", "67-63-0-SDS.pdf"},
		{"benzyl bromide 98%", "", "benzyl_bromide_98%-SDS.pdf"},
		{"a/b\\c:d\te", "", "a_b_c_d_e-SDS.pdf"},
	}
	for _, tc := range cases {
		id := NewIdentifier(tc.value, KindProductName)
		if got := id.FileName(tc.ext); got != tc.want {
			t.Errorf("FileName(%q, %q) = %q, want %q", tc.value, tc.ext, got, tc.want)
		}
	}
}
