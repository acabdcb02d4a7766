package net

import (
	"errors"
	"net"
	"testing"
)

func TestParseLink(t *testing.T) {
	l, err := ParseLink(" liveboard://192.168.1.20:8080/team-notes ")
	if err != nil {
		t.Fatalf("ParseLink: %v", err)
	}
	want := Link{Host: "192.168.1.20", Port: 8080, BoardID: "team-notes"}
	if l != want {
		t.Fatalf("got %+v, want %+v", l, want)
	}
	if got := l.String(); got != "liveboard://192.168.1.20:8080/team-notes" {
		t.Errorf("String = %q", got)
	}
	if got := l.WebSocketURL(); got != "ws://192.168.1.20:8080/ws" {
		t.Errorf("WebSocketURL = %q", got)
	}
}

func TestParseLinkIPv6(t *testing.T) {
	l, err := ParseLink("liveboard://[::1]:9000/b")
	if err != nil {
		t.Fatalf("ParseLink: %v", err)
	}
	if l.Host != "::1" || l.Port != 9000 {
		t.Fatalf("got %+v", l)
	}
	if got := l.String(); got != "liveboard://[::1]:9000/b" {
		t.Errorf("String = %q", got)
	}
}

func TestParseLinkRejects(t *testing.T) {
	for _, s := range []string{
		"",
		"http://host:80/board",
		"liveboard://host/board",
		"liveboard://host:0/board",
		"liveboard://host:notaport/board",
		"liveboard://host:80/",
		"liveboard://host:80/a/b",
	} {
		if _, err := ParseLink(s); !errors.Is(err, ErrBadLink) {
			t.Errorf("ParseLink(%q) = %v, want ErrBadLink", s, err)
		}
	}
}

func TestShareLinkUsesAnIPAddress(t *testing.T) {
	l, err := ShareLink(8080, "b")
	if err != nil {
		t.Fatalf("ShareLink: %v", err)
	}
	if net.ParseIP(l.Host) == nil {
		t.Fatalf("host %q is not an IP", l.Host)
	}
	back, err := ParseLink(l.String())
	if err != nil || back != l {
		t.Fatalf("ParseLink(%q) = %+v, %v", l.String(), back, err)
	}
}
