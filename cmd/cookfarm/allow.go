package main

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// IPMatcher matches to an ip or more.
type IPMatcher []IPPartMatcher

func (m IPMatcher) Match(ip string) bool {
	parts := strings.Split(ip, ".")
	if len(parts) != 4 {
		return false
	}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return false
		}
		if !m[i].Match(n) {
			return false
		}
	}
	return true
}

type IPPartMatcher interface {
	Match(int) bool
}

type IPPartAllMatcher struct{}

func (m IPPartAllMatcher) Match(n int) bool {
	return 0 <= n && n < 256
}

type IPPartSingleMatcher struct {
	n int
}

func (m IPPartSingleMatcher) Match(n int) bool {
	return n == m.n
}

type IPPartRangeMatcher struct {
	start, end int
}

func (m IPPartRangeMatcher) Match(n int) bool {
	return m.start <= n && n <= m.end
}

func parseIPPart(p string) (IPPartMatcher, error) {
	if p == "*" {
		return IPPartAllMatcher{}, nil
	}
	octet := func(s string) (int, error) {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 || n >= 256 {
			return -1, fmt.Errorf("an ip part should be 0-255: %v", s)
		}
		return n, nil
	}
	if !strings.HasPrefix(p, "[") {
		n, err := octet(p)
		if err != nil {
			return nil, err
		}
		return IPPartSingleMatcher{n}, nil
	}
	if !strings.HasSuffix(p, "]") {
		return nil, fmt.Errorf("unknown formatting for ip part: %v", p)
	}
	s, e, ok := strings.Cut(p[1:len(p)-1], "-")
	if !ok {
		return nil, fmt.Errorf("unknown formatting for ip part: %v", p)
	}
	start, err := octet(s)
	if err != nil {
		return nil, err
	}
	end, err := octet(e)
	if err != nil {
		return nil, err
	}
	if start > end {
		return nil, fmt.Errorf("invalid ip range: %v", p)
	}
	return IPPartRangeMatcher{start, end}, nil
}

// ipMatcherFromString parses a pattern like "10.0.[0-3].*".
// Only IPv4 patterns are supported.
func ipMatcherFromString(s string) (IPMatcher, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return nil, fmt.Errorf("ip does not consists of 4 parts: %v", s)
	}
	m := make(IPMatcher, 4)
	for i, p := range parts {
		pm, err := parseIPPart(p)
		if err != nil {
			return nil, err
		}
		m[i] = pm
	}
	return m, nil
}

// allowList is hosts allowed to use the farm.
type allowList []IPMatcher

func newAllowList(patterns []string) (allowList, error) {
	l := make(allowList, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		m, err := ipMatcherFromString(p)
		if err != nil {
			return nil, err
		}
		l = append(l, m)
	}
	return l, nil
}

// Allowed reports whether the host at addr is allowed. An empty list allows all.
func (l allowList) Allowed(addr net.Addr) bool {
	if len(l) == 0 {
		return true
	}
	if addr == nil {
		return false
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		host = addr.String()
	}
	if ip := net.ParseIP(host); ip != nil && ip.To4() != nil {
		host = ip.To4().String()
	}
	for _, m := range l {
		if m.Match(host) {
			return true
		}
	}
	return false
}

// UnaryInterceptor rejects calls from hosts not in the list.
func (l allowList) UnaryInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	p, ok := peer.FromContext(ctx)
	if !ok || !l.Allowed(p.Addr) {
		return nil, status.Errorf(codes.PermissionDenied, "host not allowed")
	}
	return handler(ctx, req)
}
