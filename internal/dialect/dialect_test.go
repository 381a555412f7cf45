package dialect

import (
	"net"
	"testing"
)

func mustNet(t *testing.T, cidr string) *net.IPNet {
	t.Helper()
	_, n, err := net.ParseCIDR(cidr)
	if err != nil {
		t.Fatalf("ParseCIDR(%s): %v", cidr, err)
	}
	return n
}

func TestClassifyPrefersINTLThenKR(t *testing.T) {
	table := &Table{
		intlNetworks: []*net.IPNet{mustNet(t, "203.0.113.0/24")},
		krNetworks:   []*net.IPNet{mustNet(t, "198.51.100.0/24")},
	}

	d, ok := table.Classify(net.ParseIP("203.0.113.42"))
	if !ok || d.Name != "INTL" {
		t.Fatalf("expected INTL match, got %+v ok=%v", d, ok)
	}

	d, ok = table.Classify(net.ParseIP("198.51.100.7"))
	if !ok || d.Name != "KR" {
		t.Fatalf("expected KR match, got %+v ok=%v", d, ok)
	}
}

func TestClassifyNonGameConnection(t *testing.T) {
	table := &Table{
		intlNetworks: []*net.IPNet{mustNet(t, "203.0.113.0/24")},
		krNetworks:   []*net.IPNet{mustNet(t, "198.51.100.0/24")},
	}

	_, ok := table.Classify(net.ParseIP("8.8.8.8"))
	if ok {
		t.Fatalf("expected no dialect match for an unrelated address")
	}
}

func TestINTLOpcodesAreBitExact(t *testing.T) {
	if INTL.RequestAction != 0x017a || INTL.ResponseActorCast != 0x02b2 ||
		INTL.ResponseActorControl != 0x00f0 || INTL.ResponseActorControlSelf != 0x017a {
		t.Fatalf("INTL opcode mismatch: %+v", INTL)
	}
	for _, code := range []uint16{0x021f, 0x03df, 0x00ad, 0x0229, 0x0197} {
		if !INTL.IsActionResult(code) {
			t.Fatalf("INTL missing action-result code %#x", code)
		}
	}
}

func TestKROpcodesAreBitExact(t *testing.T) {
	if KR.RequestAction != 0x00f0 || KR.ResponseActorCast != 0x03b8 ||
		KR.ResponseActorControl != 0x013d || KR.ResponseActorControlSelf != 0x025f {
		t.Fatalf("KR opcode mismatch: %+v", KR)
	}
	for _, code := range []uint16{0x0266, 0x0167, 0x03a7, 0x016b, 0x0231} {
		if !KR.IsActionResult(code) {
			t.Fatalf("KR missing action-result code %#x", code)
		}
	}
}

func TestNetworksReturnsUnion(t *testing.T) {
	table := &Table{
		intlNetworks: []*net.IPNet{mustNet(t, "203.0.113.0/24")},
		krNetworks:   []*net.IPNet{mustNet(t, "198.51.100.0/24")},
	}
	if len(table.Networks()) != 2 {
		t.Fatalf("Networks() = %v, want 2 entries", table.Networks())
	}
}
