package checksum

import "testing"

func TestSum(t *testing.T) {
	// sha256 of the empty string.
	const empty = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := Sum(nil); got != empty {
		t.Errorf("Sum(nil) = %s", got)
	}
	if Sum([]byte(`{"notes":[]}`)) == Sum([]byte(`{"notes":["a"]}`)) {
		t.Error("different documents share a checksum")
	}
}

func TestETagIsQuoted(t *testing.T) {
	tag := ETag([]byte("x"))
	if tag[0] != '"' || tag[len(tag)-1] != '"' {
		t.Errorf("ETag = %s", tag)
	}
}
