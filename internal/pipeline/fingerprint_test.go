package pipeline

import "testing"

func TestFingerprintDeterministic(t *testing.T) {
	a := Fingerprint([]byte("content"), []string{"q1", "q2"})
	b := Fingerprint([]byte("content"), []string{"q1", "q2"})
	if a != b {
		t.Fatal("same inputs produced different fingerprints")
	}
}

func TestFingerprintChangesWithQuestions(t *testing.T) {
	a := Fingerprint([]byte("content"), []string{"q1"})
	b := Fingerprint([]byte("content"), []string{"q2"})
	if a == b {
		t.Fatal("different questions produced same fingerprint")
	}
}

func TestFingerprintChangesWithContent(t *testing.T) {
	a := Fingerprint([]byte("content"), []string{"q1"})
	b := Fingerprint([]byte("other"), []string{"q1"})
	if a == b {
		t.Fatal("different content produced same fingerprint")
	}
}

func TestFingerprintIgnoresQuestionWhitespace(t *testing.T) {
	a := Fingerprint([]byte("content"), []string{" q1 "})
	b := Fingerprint([]byte("content"), []string{"q1"})
	if a != b {
		t.Fatal("surrounding whitespace changed the fingerprint")
	}
}

func TestFingerprintBoundaryIsUnambiguous(t *testing.T) {
	a := Fingerprint([]byte("ab"), []string{"c"})
	b := Fingerprint([]byte("a"), []string{"bc"})
	if a == b {
		t.Fatal("content/question boundary is ambiguous")
	}
}
