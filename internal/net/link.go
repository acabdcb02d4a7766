package net

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

const LinkScheme = "liveboard"

var ErrBadLink = errors.New("not a liveboard link")

// Link points at one board on one server: liveboard://host:port/board.
type Link struct {
	Host    string
	Port    int
	BoardID string
}

func ParseLink(s string) (Link, error) {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return Link{}, fmt.Errorf("%w: %v", ErrBadLink, err)
	}
	if u.Scheme != LinkScheme || u.Host == "" {
		return Link{}, fmt.Errorf("%w: %q", ErrBadLink, s)
	}
	host, portStr, err := net.SplitHostPort(u.Host)
	if err != nil {
		return Link{}, fmt.Errorf("%w: missing port in %q", ErrBadLink, s)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return Link{}, fmt.Errorf("%w: bad port %q", ErrBadLink, portStr)
	}
	board := strings.Trim(u.Path, "/")
	if board == "" || strings.Contains(board, "/") {
		return Link{}, fmt.Errorf("%w: missing board id in %q", ErrBadLink, s)
	}
	return Link{Host: host, Port: port, BoardID: board}, nil
}

func (l Link) addr() string {
	return net.JoinHostPort(l.Host, strconv.Itoa(l.Port))
}

func (l Link) String() string {
	return LinkScheme + "://" + l.addr() + "/" + url.PathEscape(l.BoardID)
}

// WebSocketURL is the live query endpoint of the link's server.
func (l Link) WebSocketURL() string {
	return "ws://" + l.addr() + "/ws"
}

// ShareLink builds the link other machines on the LAN can open.
func ShareLink(port int, boardID string) (Link, error) {
	ip, err := GetOutgoingIP()
	if err != nil {
		return Link{}, err
	}
	return Link{Host: ip, Port: port, BoardID: boardID}, nil
}
