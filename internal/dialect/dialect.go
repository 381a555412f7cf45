// Package dialect maps a destination IP to the region-specific subtype
// opcodes the action-lock tracker needs to recognize, resolved once at
// process start from a fixed set of lobby hostnames.
package dialect

import (
	"context"
	"fmt"
	"net"
)

// Dialect is a per-session immutable record of the subtype opcodes used
// by one game region.
type Dialect struct {
	Name                      string
	RequestAction             uint16
	ResponseActorCast         uint16
	ResponseActorControl      uint16
	ResponseActorControlSelf  uint16
	ResponseActionResult      map[uint16]struct{}
}

// IsActionResult reports whether subtype is one of this dialect's
// interchangeable RESPONSE_ACTION_RESULT codes.
func (d Dialect) IsActionResult(subtype uint16) bool {
	_, ok := d.ResponseActionResult[subtype]
	return ok
}

func actionResultSet(codes ...uint16) map[uint16]struct{} {
	m := make(map[uint16]struct{}, len(codes))
	for _, c := range codes {
		m[c] = struct{}{}
	}
	return m
}

// INTL is the international datacenter dialect.
var INTL = Dialect{
	Name:                     "INTL",
	RequestAction:            0x017a,
	ResponseActorCast:        0x02b2,
	ResponseActorControl:     0x00f0,
	ResponseActorControlSelf: 0x017a,
	ResponseActionResult:     actionResultSet(0x021f, 0x03df, 0x00ad, 0x0229, 0x0197),
}

// KR is the Korean datacenter dialect.
var KR = Dialect{
	Name:                     "KR",
	RequestAction:            0x00f0,
	ResponseActorCast:        0x03b8,
	ResponseActorControl:     0x013d,
	ResponseActorControlSelf: 0x025f,
	ResponseActionResult:     actionResultSet(0x0266, 0x0167, 0x03a7, 0x016b, 0x0231),
}

// intlLobbyHosts and krLobbyHosts are resolved at startup to derive the
// /24 networks each dialect's traffic lives in.
var (
	intlLobbyHosts = []string{
		"neolobby01.ffxiv.com", "neolobby02.ffxiv.com", "neolobby03.ffxiv.com", "neolobby04.ffxiv.com",
		"neolobby05.ffxiv.com", "neolobby06.ffxiv.com", "neolobby07.ffxiv.com", "neolobby08.ffxiv.com",
	}
	krLobbyHosts = []string{"lobbyf-live.ff14.co.kr"}
)

// Table classifies a destination address into a Dialect, built once at
// startup and immutable thereafter.
type Table struct {
	intlNetworks []*net.IPNet
	krNetworks   []*net.IPNet
}

// Resolve performs the startup DNS lookups and builds the network sets
// each dialect is classified by. It is the only component requiring
// network access before the acceptor starts.
func Resolve(resolver *net.Resolver) (*Table, error) {
	if resolver == nil {
		resolver = net.DefaultResolver
	}

	intlNets, err := resolveNetworks(resolver, intlLobbyHosts)
	if err != nil {
		return nil, fmt.Errorf("dialect: resolving INTL lobbies: %w", err)
	}
	krNets, err := resolveNetworks(resolver, krLobbyHosts)
	if err != nil {
		return nil, fmt.Errorf("dialect: resolving KR lobby: %w", err)
	}

	return &Table{intlNetworks: intlNets, krNetworks: krNets}, nil
}

func resolveNetworks(resolver *net.Resolver, hosts []string) ([]*net.IPNet, error) {
	seen := make(map[string]*net.IPNet)
	for _, host := range hosts {
		addrs, err := resolver.LookupHost(context.Background(), host)
		if err != nil {
			return nil, fmt.Errorf("looking up %s: %w", host, err)
		}
		for _, addr := range addrs {
			ip := net.ParseIP(addr).To4()
			if ip == nil {
				continue // IPv6 lobby records are out of scope for this dialect table
			}
			network := &net.IPNet{IP: ip.Mask(net.CIDRMask(24, 32)), Mask: net.CIDRMask(24, 32)}
			seen[network.String()] = network
		}
	}
	networks := make([]*net.IPNet, 0, len(seen))
	for _, n := range seen {
		networks = append(networks, n)
	}
	return networks, nil
}

// Networks returns the union of every /24 this table redirects, INTL
// networks first, then KR.
func (t *Table) Networks() []*net.IPNet {
	all := make([]*net.IPNet, 0, len(t.intlNetworks)+len(t.krNetworks))
	all = append(all, t.intlNetworks...)
	all = append(all, t.krNetworks...)
	return all
}

// Classify returns the dialect for dst, and ok=false if dst belongs to
// neither known datacenter network (a non-game connection, to be
// relayed as an opaque byte pipe).
func (t *Table) Classify(dst net.IP) (Dialect, bool) {
	for _, n := range t.intlNetworks {
		if n.Contains(dst) {
			return INTL, true
		}
	}
	for _, n := range t.krNetworks {
		if n.Contains(dst) {
			return KR, true
		}
	}
	return Dialect{}, false
}
