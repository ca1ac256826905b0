// ABOUTME: Tests for mDNS discovery
// ABOUTME: Covers manager creation and entry conversion
package discovery

import (
	"net"
	"testing"

	"github.com/hashicorp/mdns"
)

func TestNewManager(t *testing.T) {
	config := Config{
		InstanceName: "Test Instance",
		Port:         8941,
	}

	mgr := NewManager(config)
	if mgr == nil {
		t.Fatal("expected manager to be created")
	}
	mgr.Stop()
}

func TestEntryInfo(t *testing.T) {
	entry := &mdns.ServiceEntry{
		Name:   "studio._toneforge._tcp.local.",
		AddrV4: net.IPv4(192, 168, 1, 10),
		Port:   8941,
	}

	info := entryInfo(entry)
	if info == nil {
		t.Fatal("expected info for entry with IPv4 address")
	}
	if info.Host != "192.168.1.10" {
		t.Errorf("expected host 192.168.1.10, got %s", info.Host)
	}
	if info.Addr() != "192.168.1.10:8941" {
		t.Errorf("unexpected addr: %s", info.Addr())
	}
}

func TestEntryInfoSkipsAddressless(t *testing.T) {
	entry := &mdns.ServiceEntry{
		Name: "ghost._toneforge._tcp.local.",
		Port: 8941,
	}

	if info := entryInfo(entry); info != nil {
		t.Errorf("expected nil for entry without address, got %+v", info)
	}
}
