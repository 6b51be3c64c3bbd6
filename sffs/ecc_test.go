package sffs

import "testing"

func TestCalculateECCDeterministic(t *testing.T) {
	var page [DataBytesPerPage]byte
	for i := range page {
		page[i] = byte(i * 7)
	}
	a := CalculateECC(page[:])
	b := CalculateECC(page[:])
	if a != b {
		t.Fatalf("ECC is not deterministic: %x != %x", a, b)
	}
}

func TestCalculateECCChangesWithInput(t *testing.T) {
	var page [DataBytesPerPage]byte
	zero := CalculateECC(page[:])
	page[100] ^= 0x01
	flipped := CalculateECC(page[:])
	if zero == flipped {
		t.Fatalf("single bit flip produced identical ECC")
	}
}

func TestCalculateECCPanicsOnShortPage(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on short page")
		}
	}()
	CalculateECC(make([]byte, 10))
}

func TestParity8(t *testing.T) {
	cases := []struct {
		b    byte
		want byte
	}{
		{0x00, 0},
		{0x01, 1},
		{0x03, 0},
		{0xFF, 0},
		{0x80, 1},
	}
	for _, c := range cases {
		if got := parity8(c.b); got != c.want {
			t.Errorf("parity8(%#x) = %d, want %d", c.b, got, c.want)
		}
	}
}
