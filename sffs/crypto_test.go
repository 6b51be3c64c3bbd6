package sffs

import "testing"

func TestSuperblockSaltBytes(t *testing.T) {
	salt := superblockSalt{startingCluster: 0x1234}
	got := salt.bytes()
	want := []byte{0x12, 0x34}
	if string(got) != string(want) {
		t.Fatalf("superblockSalt.bytes() = %x, want %x", got, want)
	}
}

func TestDataSaltBytesLength(t *testing.T) {
	var name [maxNameLen]byte
	copy(name[:], "SYSCONF")
	salt := dataSalt{uid: 1, name: name, chainIndex: 2, fstIndex: 3, x3: 4}
	got := salt.bytes()
	want := 4 + maxNameLen + 2 + 2 + 4
	if len(got) != want {
		t.Fatalf("dataSalt.bytes() length = %d, want %d", len(got), want)
	}
	if string(got[4:4+maxNameLen]) != string(name[:]) {
		t.Fatalf("dataSalt.bytes() did not embed the name field verbatim")
	}
}

func TestHMACMacGeneratorResetsBetweenUses(t *testing.T) {
	g := newHMACMacGenerator([]byte("key"))
	g.Update([]byte("hello"))
	first := g.Finalise()

	g.Update([]byte("hello"))
	second := g.Finalise()

	if first != second {
		t.Fatalf("Finalise did not reset internal state between calls: %x != %x", first, second)
	}
}

func TestAESClusterCodecRoundtrip(t *testing.T) {
	ks := testKeyStore(t)
	var plain [ClusterDataSize]byte
	for i := range plain {
		plain[i] = byte(i)
	}

	var cipherText [ClusterDataSize]byte
	if err := encryptCluster(ks, plain[:], cipherText[:]); err != nil {
		t.Fatalf("encryptCluster: %v", err)
	}
	if cipherText == plain {
		t.Fatalf("ciphertext is identical to plaintext")
	}

	var roundtripped [ClusterDataSize]byte
	if err := decryptCluster(ks, cipherText[:], roundtripped[:]); err != nil {
		t.Fatalf("decryptCluster: %v", err)
	}
	if roundtripped != plain {
		t.Fatalf("decrypt(encrypt(x)) != x")
	}
}
