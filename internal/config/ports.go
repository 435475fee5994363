package config

import (
	"fmt"
	"strconv"
	"strings"
)

type portRange struct {
	lo uint16
	hi uint16
}

// PortSet is a parsed port allow-list. An empty set admits every port.
type PortSet struct {
	ranges []portRange
}

// ParsePortSet parses a comma-separated list of ports and inclusive ranges,
// e.g. "80,443,8000-9000". Whitespace around entries is ignored.
func ParsePortSet(spec string) (*PortSet, error) {
	ps := &PortSet{}
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return ps, nil
	}

	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, err := parsePortEntry(part)
		if err != nil {
			return nil, err
		}
		ps.ranges = append(ps.ranges, portRange{lo: lo, hi: hi})
	}
	return ps, nil
}

func parsePortEntry(entry string) (uint16, uint16, error) {
	if lo, hi, ok := strings.Cut(entry, "-"); ok {
		start, err := parsePort(lo)
		if err != nil {
			return 0, 0, err
		}
		end, err := parsePort(hi)
		if err != nil {
			return 0, 0, err
		}
		if start > end {
			return 0, 0, fmt.Errorf("invalid port range %q: start exceeds end", entry)
		}
		return start, end, nil
	}
	p, err := parsePort(entry)
	return p, p, err
}

func parsePort(s string) (uint16, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	return uint16(n), nil
}

// Empty reports whether the set admits all traffic.
func (ps *PortSet) Empty() bool {
	return ps == nil || len(ps.ranges) == 0
}

// Contains reports whether the port is in the allow-list.
func (ps *PortSet) Contains(port uint16) bool {
	for _, r := range ps.ranges {
		if port >= r.lo && port <= r.hi {
			return true
		}
	}
	return false
}

// Admits reports whether a flow between the two ports may enter the
// pipeline. An empty set admits everything; otherwise at least one endpoint
// must be listed.
func (ps *PortSet) Admits(srcPort, dstPort uint16) bool {
	if ps.Empty() {
		return true
	}
	return ps.Contains(srcPort) || ps.Contains(dstPort)
}
