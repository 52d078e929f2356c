package health

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
)

// IPLookup finds the public address of the monitored server.
type IPLookup interface {
	LookupIP(ctx context.Context) (string, error)
}

// DNSLookup resolves a host name, preferring IPv4.
type DNSLookup struct {
	Host     string
	Resolver *net.Resolver
}

func (d DNSLookup) LookupIP(ctx context.Context) (string, error) {
	r := d.Resolver
	if r == nil {
		r = net.DefaultResolver
	}
	ips, err := r.LookupIP(ctx, "ip", d.Host)
	if err != nil {
		return "", errors.Wrapf(err, "resolve %s", d.Host)
	}
	for _, ip := range ips {
		if ip.To4() != nil {
			return ip.String(), nil
		}
	}
	if len(ips) == 0 {
		return "", errors.Newf("no addresses for %s", d.Host)
	}
	return ips[0].String(), nil
}

// HTTPLookup asks an IP echo service (one address in a plain text body)
// for the address this process is seen from. Used when the server runs on
// the bot's own host.
type HTTPLookup struct {
	URL    string
	Client *http.Client
}

func (h HTTPLookup) LookupIP(ctx context.Context) (string, error) {
	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return "", errors.Wrap(err, "build ip lookup request")
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "ip lookup request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Newf("ip lookup returned %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 256))
	if err != nil {
		return "", errors.Wrap(err, "read ip lookup response")
	}
	ip := strings.TrimSpace(string(body))
	if net.ParseIP(ip) == nil {
		return "", errors.Newf("ip lookup returned %q", ip)
	}
	return ip, nil
}
