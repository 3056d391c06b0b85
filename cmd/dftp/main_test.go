package main

import "testing"

func TestIsAddrValid(t *testing.T) {
	cases := []struct {
		addr string
		want bool
	}{
		{"127.0.0.1:8086", true},
		{"0.0.0.0:1", true},
		{"255.255.255.255:65535", true},
		{"256.0.0.1:8086", false},
		{"127.0.0.1:0", false},
		{"127.0.0.1:65536", false},
		{"127.0.0.1", false},
		{"not.an.ip.addr:8086", false},
		{"127.0.0.1:notaport", false},
		{"1.2.3:8086", false},
	}
	for _, c := range cases {
		if got := isAddrValid(c.addr); got != c.want {
			t.Errorf("isAddrValid(%q) = %v, want %v", c.addr, got, c.want)
		}
	}
}

func TestResolveAddrSingleBareHost(t *testing.T) {
	addr, err := resolveAddr([]string{"127.0.0.1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if addr != "127.0.0.1:8086" {
		t.Errorf("got %q", addr)
	}
}

func TestResolveAddrSingleWithPort(t *testing.T) {
	addr, err := resolveAddr([]string{"127.0.0.1:9000"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if addr != "127.0.0.1:9000" {
		t.Errorf("got %q", addr)
	}
}

func TestResolveAddrTwoArgs(t *testing.T) {
	addr, err := resolveAddr([]string{"127.0.0.1", "9000"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if addr != "127.0.0.1:9000" {
		t.Errorf("got %q", addr)
	}
}

func TestResolveAddrRejectsInvalid(t *testing.T) {
	if _, err := resolveAddr([]string{"not-an-addr"}); err == nil {
		t.Fatal("expected error for invalid address")
	}
}

func TestResolveAddrRejectsNoArgs(t *testing.T) {
	if _, err := resolveAddr(nil); err == nil {
		t.Fatal("expected error when no address is given")
	}
}

func TestValidatePort(t *testing.T) {
	cases := []struct {
		port int
		ok   bool
	}{
		{0, true}, // unset sentinel
		{1, true},
		{8086, true},
		{65535, true},
		{-1, false},
		{65536, false},
		{99999, false},
	}
	for _, c := range cases {
		err := validatePort(c.port)
		if (err == nil) != c.ok {
			t.Errorf("validatePort(%d) error = %v, want ok=%v", c.port, err, c.ok)
		}
	}
}
