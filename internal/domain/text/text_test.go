package text

import (
	"math/rand"
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  فندق،  سياحي!! ", "فندق سياحي"},
		{"Hotel. Licence?", "hotel licence"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestKeywords_DropsShortAndStopWords(t *testing.T) {
	got := Keywords("ترخيص فندق في منطقة العاشر من رمضان", NewSet("منطقة"))
	want := []string{"ترخيص", "فندق", "العاشر", "رمضان"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("Keywords() = %v, want %v", got, want)
	}
}

func TestFingerprint_StopWordsFromCaller(t *testing.T) {
	stop := NewSet("منطقة")
	if got := Fingerprint("منطقة العاشر", stop); got != "العاشر" {
		t.Errorf("Fingerprint() = %q, want %q", got, "العاشر")
	}
	if got := Fingerprint("منطقة العاشر", nil); got != "العاشر|منطقة" {
		t.Errorf("Fingerprint() without stop words = %q", got)
	}
}

func TestFingerprint_OrderIndependent(t *testing.T) {
	inputs := []string{
		"ترخيص فندق سياحي في منطقة العاشر",
		"مصنع أغذية بمدينة السادات الصناعية",
		"القرار 104 لسنة 2022 حوافز استثمارية قطاع أ",
		"",
	}
	rng := rand.New(rand.NewSource(42))
	for _, in := range inputs {
		kws := Keywords(in, nil)
		for range 20 {
			shuffled := append([]string(nil), kws...)
			rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
			if got := Fingerprint(strings.Join(shuffled, " "), nil); got != Fingerprint(in, nil) {
				t.Fatalf("fingerprint changed under shuffle: %q vs %q", got, Fingerprint(in, nil))
			}
		}
	}
}

func TestFingerprint_Deduplicates(t *testing.T) {
	if Fingerprint("فندق فندق سياحي", nil) != Fingerprint("سياحي فندق", nil) {
		t.Error("duplicate keywords should not change the fingerprint")
	}
}

func TestPrefix(t *testing.T) {
	if got := Prefix("فندق خمس نجوم", 4); got != "فندق" {
		t.Errorf("Prefix() = %q", got)
	}
	if got := Prefix("abc", 10); got != "abc" {
		t.Errorf("Prefix() = %q", got)
	}
	if got := Prefix("abc", 0); got != "" {
		t.Errorf("Prefix() = %q", got)
	}
}

func TestHasDigit(t *testing.T) {
	if !HasDigit("قرار 104") || !HasDigit("قرار ١٠٤") {
		t.Error("expected digits")
	}
	if HasDigit("منطقة صناعية") {
		t.Error("unexpected digit")
	}
}

func TestHasArabic(t *testing.T) {
	if HasArabic("hotel licence") {
		t.Error("unexpected arabic")
	}
	if !HasArabic("hotel فندق") {
		t.Error("expected arabic")
	}
}
