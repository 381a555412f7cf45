// Package redirect installs and removes the iptables NAT rule that
// steers game traffic onto the proxy's listening port, and enables
// IPv4 forwarding. It is an interface to the host, not a core
// component: every call shells out.
package redirect

import (
	"fmt"
	"net"
	"os/exec"
	"strings"
)

// Rule is one installed PREROUTING redirect, keyed by the networks and
// port it was installed for, so Remove can reverse exactly what
// Install did.
type Rule struct {
	networks string
	port     int
	path     string
}

// Install adds a PREROUTING NAT rule redirecting inbound TCP destined
// to any of networks onto port, and enables IPv4 forwarding.
// iptablesPath is usually just "iptables", resolved through $PATH.
func Install(iptablesPath string, networks []*net.IPNet, port int) (*Rule, error) {
	r := &Rule{networks: joinNetworks(networks), port: port, path: iptablesPath}

	cmd := exec.Command(r.path, "-t", "nat", "-I", "PREROUTING",
		"-d", r.networks, "-p", "tcp", "-j", "REDIRECT", "--to-port", fmt.Sprintf("%d", port))
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("requires root permissions: %w (%s)", err, strings.TrimSpace(string(out)))
	}

	// Best-effort; a host that already forwards IPv4 traffic, or one
	// without sysctl, should not block startup.
	_ = exec.Command("sysctl", "-w", "net.ipv4.ip_forward=1").Run()

	return r, nil
}

// Remove deletes the rule Install added. Failure here does not affect
// sessions that have already closed; the caller still exits non-zero.
func (r *Rule) Remove() error {
	cmd := exec.Command(r.path, "-t", "nat", "-D", "PREROUTING",
		"-d", r.networks, "-p", "tcp", "-j", "REDIRECT", "--to-port", fmt.Sprintf("%d", r.port))
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to remove iptables rule: %w (%s)", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func joinNetworks(networks []*net.IPNet) string {
	parts := make([]string, len(networks))
	for i, n := range networks {
		parts[i] = n.String()
	}
	return strings.Join(parts, ",")
}
