package utils

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
)

func TestIsPublicAddr(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{"93.184.216.34", true},
		{"2606:4700::6810:85e5", true},
		{"127.0.0.1", false},
		{"::1", false},
		{"10.1.2.3", false},
		{"172.16.0.1", false},
		{"192.168.1.10", false},
		{"169.254.169.254", false},
		{"fe80::1", false},
		{"fd00::1", false},
		{"100.64.0.1", false},
		{"0.0.0.0", false},
		{"0.1.2.3", false},
		{"224.0.0.1", false},
		{"255.255.255.255", false},
		{"::ffff:127.0.0.1", false},
		{"::ffff:8.8.8.8", true},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			if got := IsPublicAddr(netip.MustParseAddr(tt.addr)); got != tt.want {
				t.Errorf("IsPublicAddr(%s) = %v, want %v", tt.addr, got, tt.want)
			}
		})
	}
}

func TestDenyInternalDial(t *testing.T) {
	tests := []struct {
		address string
		wantErr bool
	}{
		{"93.184.216.34:443", false},
		{"127.0.0.1:6379", true},
		{"[::1]:80", true},
		{"169.254.169.254:80", true},
		{"not-an-address", true},
	}
	for _, tt := range tests {
		err := DenyInternalDial("tcp", tt.address, nil)
		if (err != nil) != tt.wantErr {
			t.Errorf("DenyInternalDial(%q) error = %v, wantErr %v", tt.address, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrPrivateAddress) {
			t.Errorf("DenyInternalDial(%q) error = %v, want ErrPrivateAddress", tt.address, err)
		}
	}
}

func TestOutboundTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	t.Cleanup(srv.Close)

	guarded := &http.Client{Transport: OutboundTransport(false)}
	if _, err := guarded.Get(srv.URL); !errors.Is(err, ErrPrivateAddress) {
		t.Errorf("guarded GET loopback error = %v, want ErrPrivateAddress", err)
	}

	open := &http.Client{Transport: OutboundTransport(true)}
	resp, err := open.Get(srv.URL)
	if err != nil {
		t.Fatalf("unguarded GET error = %v", err)
	}
	Close(resp.Body)
}

func TestCheckPublicHostLiterals(t *testing.T) {
	ctx := context.Background()
	for _, host := range []string{"127.0.0.1", "[::1]", "169.254.169.254:80", "10.0.0.8"} {
		if err := CheckPublicHost(ctx, host); !errors.Is(err, ErrPrivateAddress) {
			t.Errorf("CheckPublicHost(%q) error = %v, want ErrPrivateAddress", host, err)
		}
	}
	if err := CheckPublicHost(ctx, "93.184.216.34"); err != nil {
		t.Errorf("CheckPublicHost(public) error = %v", err)
	}
}
