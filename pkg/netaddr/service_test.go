package netaddr

import "testing"

func TestParseServiceClearnet(t *testing.T) {
	svc, err := ParseService("127.0.0.1:8333")
	if err != nil {
		t.Fatalf("ParseService: %v", err)
	}
	if !svc.OnTransport(TransportIPv4) {
		t.Fatalf("expected IPv4 transport, got %v", svc.Addr.Transport)
	}
	if svc.Port != 8333 {
		t.Fatalf("got port %d, want 8333", svc.Port)
	}
	if got := svc.String(); got != "127.0.0.1:8333" {
		t.Fatalf("String() = %q", got)
	}
}

func TestParseServiceTorV3(t *testing.T) {
	const onion = "2gzyxa5ihm7nsggfxnu52rck2vv4rvmdlkiu3zzui5du4xyclen53wid.onion:8333"
	svc, err := ParseService(onion)
	if err != nil {
		t.Fatalf("ParseService: %v", err)
	}
	if !svc.OnTransport(TransportTorV3) {
		t.Fatalf("expected TorV3 transport, got %v", svc.Addr.Transport)
	}
}

func TestParseServiceInvalid(t *testing.T) {
	if _, err := ParseService("not a service"); err == nil {
		t.Fatal("expected error for garbage input")
	}
}
